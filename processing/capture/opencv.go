package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	captureWidth  = 640
	captureHeight = 480
)

// OpenCVStreamer grabs frames from a camera index through OpenCV.
type OpenCVStreamer struct {
	stopOnce sync.Once

	device    int
	targetFPS uint

	capture   *gocv.VideoCapture
	frameChan chan image.Image
	errChan   chan error
	stopChan  chan struct{}
	done      chan struct{}
}

func NewOpenCVStreamer(device int, targetFPS uint) *OpenCVStreamer {
	if targetFPS == 0 {
		targetFPS = defaultFPS
	}

	return &OpenCVStreamer{
		device:    device,
		targetFPS: targetFPS,
		frameChan: make(chan image.Image, 1),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// OpenCamera opens a device at the capture resolution used for detection.
func OpenCamera(device int) (*gocv.VideoCapture, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, ErrCameraUnavailable
	}

	vc.Set(gocv.VideoCaptureFrameWidth, captureWidth)
	vc.Set(gocv.VideoCaptureFrameHeight, captureHeight)

	return vc, nil
}

func (cs *OpenCVStreamer) Start() error {
	vc, err := OpenCamera(cs.device)
	if err != nil {
		return err
	}
	cs.capture = vc

	log.WithField("device", cs.device).Debug("opencv capture started")

	go cs.readLoop()

	return nil
}

func (cs *OpenCVStreamer) readLoop() {
	defer close(cs.done)
	defer close(cs.frameChan)
	defer close(cs.errChan)

	mat := gocv.NewMat()
	defer mat.Close()

	ticker := time.NewTicker(time.Second / time.Duration(cs.targetFPS))
	defer ticker.Stop()

	for {
		select {
		case <-cs.stopChan:
			return
		case <-ticker.C:
		}

		if ok := cs.capture.Read(&mat); !ok {
			cs.errChan <- fmt.Errorf("failed to capture frame from device %d", cs.device)
			return
		}
		if mat.Empty() {
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			cs.errChan <- fmt.Errorf("convert frame: %w", err)
			return
		}

		select {
		case cs.frameChan <- img:
		default:
		}
	}
}

func (cs *OpenCVStreamer) Stop() {
	cs.stopOnce.Do(func() {
		close(cs.stopChan)
		if cs.capture != nil {
			<-cs.done
			cs.capture.Close()
		}
	})
}

func (cs *OpenCVStreamer) FrameChan() <-chan image.Image { return cs.frameChan }
func (cs *OpenCVStreamer) ErrorChan() <-chan error       { return cs.errChan }
