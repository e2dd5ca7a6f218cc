package attendance

import (
	"sync"

	"attendance/internal/models"
)

type TrackerOptions struct {
	Roster Roster

	// Detections at or below MinConfidence are ignored.
	MinConfidence float32

	// Cooldown is the number of frames before a label may be marked again.
	// Zero marks each label once.
	Cooldown uint64
}

// Tracker decides which detections become attendance marks.
type Tracker struct {
	opts TrackerOptions

	mu   sync.Mutex
	seen map[string]uint64
}

func NewTracker(opts TrackerOptions) *Tracker {
	return &Tracker{
		opts: opts,
		seen: make(map[string]uint64),
	}
}

func (t *Tracker) Observe(frame uint64, detections []models.DetectionResult) []models.Mark {
	t.mu.Lock()
	defer t.mu.Unlock()

	var marks []models.Mark
	for _, det := range detections {
		if det.Label == "" {
			continue
		}

		roll, ok := t.opts.Roster.RollNo(det.Label, det.ClassID)
		if !ok {
			continue
		}

		if det.Confidence <= t.opts.MinConfidence && t.opts.MinConfidence > 0 {
			continue
		}

		if last, ok := t.seen[det.Label]; ok {
			if t.opts.Cooldown == 0 || last+t.opts.Cooldown >= frame {
				continue
			}
		}
		t.seen[det.Label] = frame

		marks = append(marks, models.Mark{
			RollNo:     roll,
			Label:      det.Label,
			ClassID:    det.ClassID,
			Confidence: det.Confidence,
			Frame:      frame,
		})
	}

	return marks
}

// Seen returns the labels marked so far.
func (t *Tracker) Seen() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.seen))
	for label := range t.seen {
		out = append(out, label)
	}
	return out
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen = make(map[string]uint64)
}
