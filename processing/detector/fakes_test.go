package processing

import (
	"image"
	"sync"

	"attendance/internal/models"
)

type fakeStreamer struct {
	startErr error
	frames   chan image.Image
	errs     chan error

	stopOnce sync.Once
	stopped  chan struct{}
}

func newFakeStreamer() *fakeStreamer {
	return &fakeStreamer{
		frames:  make(chan image.Image, 16),
		errs:    make(chan error, 1),
		stopped: make(chan struct{}),
	}
}

func (f *fakeStreamer) Start() error                  { return f.startErr }
func (f *fakeStreamer) Stop()                         { f.stopOnce.Do(func() { close(f.stopped) }) }
func (f *fakeStreamer) FrameChan() <-chan image.Image { return f.frames }
func (f *fakeStreamer) ErrorChan() <-chan error       { return f.errs }

func frame() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

// fakeDetector answers every frame it receives with the same results.
type fakeDetector struct {
	results []models.DetectionResult

	in  chan image.Image
	out chan []models.DetectionResult

	mu       sync.Mutex
	received int

	stopOnce sync.Once
	stop     chan struct{}
}

func newFakeDetector(results ...models.DetectionResult) *fakeDetector {
	return &fakeDetector{
		results: results,
		in:      make(chan image.Image, 16),
		out:     make(chan []models.DetectionResult, 16),
		stop:    make(chan struct{}),
	}
}

func (f *fakeDetector) Input() chan<- image.Image               { return f.in }
func (f *fakeDetector) Output() <-chan []models.DetectionResult { return f.out }

func (f *fakeDetector) Start() {
	go func() {
		for {
			select {
			case <-f.stop:
				return
			case <-f.in:
				f.mu.Lock()
				f.received++
				f.mu.Unlock()
				f.out <- f.results
			}
		}
	}()
}

func (f *fakeDetector) Stop() { f.stopOnce.Do(func() { close(f.stop) }) }

func (f *fakeDetector) Received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []models.Entry
}

func (m *memoryRecorder) Append(e models.Entry) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return models.Record{RollNo: e.RollNo, Name: e.Name}, nil
}

func (m *memoryRecorder) Entries() []models.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Entry(nil), m.entries...)
}
