package processing

import (
	"image"
	"image/color"
	"sync"
	"time"

	"attendance/internal/models"
	stream "attendance/processing/capture"

	log "github.com/sirupsen/logrus"
)

// ResultsHook receives every result set together with the number of frames
// read so far.
type ResultsHook func(frame uint64, results []models.DetectionResult)

// Stats is a snapshot of the processing loop.
type Stats struct {
	FPS      uint
	Latency  time.Duration
	Frames   uint64
	IsActive bool
}

type Processor struct {
	InImageStream  stream.VideoStreamer
	OutImageStream chan image.Image

	// FrameSkip forwards only every n-th frame to the detector; 0 or 1 sends all.
	FrameSkip uint64
	OnResults ResultsHook

	det Detector

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
	errChan  chan error

	mu          sync.RWMutex
	stats       Stats
	lastResults []models.DetectionResult
}

func NewProcessor(in stream.VideoStreamer, det Detector, bufferSize uint) *Processor {
	return &Processor{
		InImageStream:  in,
		OutImageStream: make(chan image.Image, bufferSize),
		det:            det,
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
		errChan:        make(chan error, 1),
	}
}

// Done is closed once the processing loop has exited.
func (p *Processor) Done() <-chan struct{} { return p.done }

// Err reports the streamer error that ended the loop, if any.
func (p *Processor) Err() <-chan error { return p.errChan }

func (p *Processor) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

func (p *Processor) LastResults() []models.DetectionResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastResults
}

func (p *Processor) Start() {
	p.setActive(true)

	go p.collectResults()
	go p.run()
}

func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})
}

func (p *Processor) setActive(v bool) {
	p.mu.Lock()
	p.stats.IsActive = v
	p.mu.Unlock()
}

func (p *Processor) collectResults() {
	for {
		select {
		case <-p.stopChan:
			return
		case <-p.done:
			return
		case results := <-p.det.Output():
			p.mu.Lock()
			p.lastResults = results
			frame := p.stats.Frames
			p.mu.Unlock()

			if p.OnResults != nil {
				p.OnResults(frame, results)
			}
		}
	}
}

func (p *Processor) run() {
	defer close(p.done)
	defer p.setActive(false)

	var frameCount uint
	lastFpsUpdate := time.Now()
	errs := p.InImageStream.ErrorChan()

	for {
		select {
		case frame, ok := <-p.InImageStream.FrameChan():
			if !ok {
				// Streamers send their error before closing the frame channel.
				select {
				case err, ok := <-p.InImageStream.ErrorChan():
					if ok && err != nil {
						p.fail(err)
					}
				default:
				}
				return
			}
			if frame == nil {
				continue
			}

			start := time.Now()

			p.mu.Lock()
			p.stats.Frames++
			n := p.stats.Frames
			p.mu.Unlock()

			if p.FrameSkip <= 1 || n%p.FrameSkip == 0 {
				select {
				case p.det.Input() <- frame:
				default:
				}
			}

			out := annotate(frame, p.LastResults())

			p.mu.Lock()
			p.stats.Latency = time.Since(start)
			p.mu.Unlock()

			select {
			case p.OutImageStream <- out:
			default:
			}

			frameCount++
			if time.Since(lastFpsUpdate) >= time.Second {
				p.mu.Lock()
				p.stats.FPS = frameCount
				p.mu.Unlock()
				frameCount = 0
				lastFpsUpdate = time.Now()
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.fail(err)
			return

		case <-p.stopChan:
			return
		}
	}
}

func (p *Processor) fail(err error) {
	log.WithError(err).Error("video stream failed")
	select {
	case p.errChan <- err:
	default:
	}
}

var boxColor = color.RGBA{0, 255, 0, 255}

// annotate draws on a copy so the detector never sees a half-painted frame.
func annotate(frame image.Image, results []models.DetectionResult) image.Image {
	src, ok := frame.(*image.RGBA)
	if !ok || len(results) == 0 {
		return frame
	}

	dst := &image.RGBA{
		Pix:    make([]byte, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	DrawDetections(dst, results)

	return dst
}

// DrawDetections outlines every normalized box on img.
func DrawDetections(img *image.RGBA, results []models.DetectionResult) {
	if len(results) == 0 {
		return
	}

	bounds := img.Bounds()
	w := float32(bounds.Dx())
	h := float32(bounds.Dy())

	for _, res := range results {
		if !res.Valid() {
			continue
		}
		drawRect(img,
			int(res.Box[0]*h), int(res.Box[1]*w),
			int(res.Box[2]*h), int(res.Box[3]*w),
			boxColor)
	}
}

func drawRect(img *image.RGBA, y1, x1, y2, x2 int, col color.Color) {
	const thickness = 3
	bounds := img.Bounds()

	setPixel := func(x, y int) {
		if (image.Point{X: x, Y: y}).In(bounds) {
			img.Set(x, y, col)
		}
	}

	for t := 0; t < thickness; t++ {
		for x := x1; x <= x2; x++ {
			setPixel(x, y1+t)
			setPixel(x, y2-t)
		}
		for y := y1; y <= y2; y++ {
			setPixel(x1+t, y)
			setPixel(x2-t, y)
		}
	}
}
