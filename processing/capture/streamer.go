package capture

import (
	"errors"
	"image"
)

var ErrCameraUnavailable = errors.New("could not open webcam")

// VideoStreamer produces frames until stopped or the source ends. FrameChan
// is closed when the stream is over.
type VideoStreamer interface {
	Start() error
	Stop()
	FrameChan() <-chan image.Image
	ErrorChan() <-chan error
}
