package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"
	"time"
)

const defaultFPS uint = 30

// LocalFileStreamer replays a recorded video at the target frame rate, which
// is handy for rehearsing a session without a camera.
type LocalFileStreamer struct {
	stopOnce sync.Once

	path      string
	targetFPS uint
	width     int
	height    int

	cmd       *exec.Cmd
	frameChan chan image.Image
	errChan   chan error
	stopChan  chan struct{}
}

func NewLocalStreamer(path string, targetFPS uint, width int, height int) (*LocalFileStreamer, error) {
	if path == "" {
		return nil, errors.New("no video file selected")
	}

	if _, _, err := probeVideoDimensions(path); err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}

	if targetFPS == 0 {
		targetFPS = defaultFPS
	}

	return &LocalFileStreamer{
		path:      path,
		targetFPS: targetFPS,
		width:     width,
		height:    height,
		frameChan: make(chan image.Image, 10),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}, nil
}

func localArgs(path string, fps uint, width, height int) []string {
	return []string{
		"-i", path,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d:flags=neighbor", fps, width, height),
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	}
}

func (ls *LocalFileStreamer) Start() error {
	ls.cmd = exec.Command("ffmpeg", localArgs(ls.path, ls.targetFPS, ls.width, ls.height)...)

	stdout, err := ls.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := ls.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}

	go ls.readFrames(stdout)

	return nil
}

func (ls *LocalFileStreamer) readFrames(stdout io.ReadCloser) {
	defer close(ls.frameChan)
	defer close(ls.errChan)
	defer stdout.Close()
	defer ls.stopCmdOut()

	frameSize := ls.width * ls.height * 4

	ticker := time.NewTicker(time.Second / time.Duration(ls.targetFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ls.stopChan:
			return

		case <-ticker.C:
			buffer := make([]byte, frameSize)
			_, err := io.ReadFull(stdout, buffer)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case <-ls.stopChan:
				default:
					ls.errChan <- fmt.Errorf("read error: %w", err)
				}
				return
			}

			img := &image.RGBA{
				Pix:    buffer,
				Stride: ls.width * 4,
				Rect:   image.Rect(0, 0, ls.width, ls.height),
			}

			select {
			case ls.frameChan <- img:
			case <-ls.stopChan:
				return
			}
		}
	}
}

func (ls *LocalFileStreamer) stopCmdOut() {
	if ls.cmd != nil && ls.cmd.Process != nil {
		ls.cmd.Process.Kill()
		ls.cmd.Wait()
	}
}

func (ls *LocalFileStreamer) Stop() {
	ls.stopOnce.Do(func() {
		close(ls.stopChan)
		ls.stopCmdOut()
	})
}

func (ls *LocalFileStreamer) FrameChan() <-chan image.Image { return ls.frameChan }
func (ls *LocalFileStreamer) ErrorChan() <-chan error       { return ls.errChan }

type probeData struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

func parseProbe(output []byte) (int, int, error) {
	var data probeData
	if err := json.Unmarshal(output, &data); err != nil {
		return 0, 0, err
	}

	if len(data.Streams) == 0 {
		return 0, 0, errors.New("no video streams found")
	}

	return data.Streams[0].Width, data.Streams[0].Height, nil
}

func probeVideoDimensions(path string) (int, int, error) {
	output, err := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		return 0, 0, err
	}

	return parseProbe(output)
}
