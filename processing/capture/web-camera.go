package capture

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
)

// FFmpegWebcamStreamer reads raw RGBA frames from an ffmpeg capture of a
// local camera device.
type FFmpegWebcamStreamer struct {
	stopOnce sync.Once

	deviceName string
	width      int
	height     int
	targetFPS  uint

	cmd       *exec.Cmd
	stderr    lockedBuffer
	frameChan chan image.Image
	errChan   chan error
	stopChan  chan struct{}
}

func NewFFmpegWebcam(deviceName string, targetFPS uint, width int, height int) *FFmpegWebcamStreamer {
	return &FFmpegWebcamStreamer{
		deviceName: deviceName,
		width:      width,
		height:     height,
		targetFPS:  targetFPS,

		frameChan: make(chan image.Image),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}
}

func webcamArgs(goos, device string, fps uint, width, height int) []string {
	input := []string{"-f", "v4l2", "-i", device}
	if goos == "windows" {
		input = []string{"-f", "dshow", "-i", "video=" + device}
	}

	return append(input,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d", fps, width, height),
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	)
}

func (ws *FFmpegWebcamStreamer) Start() error {
	ws.cmd = exec.Command("ffmpeg", webcamArgs(runtime.GOOS, ws.deviceName, ws.targetFPS, ws.width, ws.height)...)
	ws.cmd.Stderr = &ws.stderr

	stdout, err := ws.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := ws.cmd.Start(); err != nil {
		return fmt.Errorf("%w: ffmpeg: %v", ErrCameraUnavailable, err)
	}

	log.WithField("device", ws.deviceName).Debug("ffmpeg webcam started")

	go ws.readLoop(stdout)

	return nil
}

func (ws *FFmpegWebcamStreamer) readLoop(stdout io.ReadCloser) {
	defer close(ws.frameChan)
	defer close(ws.errChan)
	defer stdout.Close()
	defer ws.stopCmdOut()

	frameSize := ws.width * ws.height * 4
	first := true

	for {
		select {
		case <-ws.stopChan:
			return
		default:
		}

		buffer := make([]byte, frameSize)
		if _, err := io.ReadFull(stdout, buffer); err != nil {
			select {
			case <-ws.stopChan:
				return
			default:
			}
			if first {
				ws.errChan <- fmt.Errorf("%w: %s", ErrCameraUnavailable, ws.stderr.String())
			} else {
				ws.errChan <- fmt.Errorf("read error: %w", err)
			}
			return
		}
		first = false

		img := &image.RGBA{
			Pix:    buffer,
			Stride: ws.width * 4,
			Rect:   image.Rect(0, 0, ws.width, ws.height),
		}

		select {
		case ws.frameChan <- img:
		default:
		}
	}
}

func (ws *FFmpegWebcamStreamer) stopCmdOut() {
	if ws.cmd != nil && ws.cmd.Process != nil {
		ws.cmd.Process.Kill()
		ws.cmd.Wait()
	}
}

func (ws *FFmpegWebcamStreamer) Stop() {
	ws.stopOnce.Do(func() {
		close(ws.stopChan)
		ws.stopCmdOut()
	})
}

// lockedBuffer collects ffmpeg diagnostics while the read loop may inspect them.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (ws *FFmpegWebcamStreamer) FrameChan() <-chan image.Image { return ws.frameChan }
func (ws *FFmpegWebcamStreamer) ErrorChan() <-chan error       { return ws.errChan }

var dshowDevice = regexp.MustCompile(`"([^"]+)"\s+\(video\)`)

// parseDshowDevices extracts video device names from `ffmpeg -list_devices`.
func parseDshowDevices(output string) []string {
	var cameras []string
	seen := make(map[string]bool)
	for _, m := range dshowDevice.FindAllStringSubmatch(output, -1) {
		name := m[1]
		if name != "dummy" && !seen[name] {
			cameras = append(cameras, name)
			seen[name] = true
		}
	}
	return cameras
}

func ListCameras() ([]string, error) {
	if runtime.GOOS != "windows" {
		return filepath.Glob("/dev/video*")
	}

	cmd := exec.Command("ffmpeg", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// ffmpeg exits non-zero after listing.
	_ = cmd.Run()

	return parseDshowDevices(stderr.String()), nil
}
