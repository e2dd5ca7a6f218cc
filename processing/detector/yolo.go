package processing

import (
	"fmt"
	"sort"

	"attendance/internal/models"
)

const DefaultScoreThreshold float32 = 0.25

type YOLOOptions struct {
	InputSize      int
	ScoreThreshold float32
	IoUThreshold   float32
	Names          []string
}

// DecodeYOLOv8 turns the raw [1, 4+classes, anchors] output of a YOLOv8
// detection head into normalized, non-max-suppressed detections. The first
// four rows are cx, cy, w, h in network input pixels.
func DecodeYOLOv8(data []float32, numClasses, numAnchors int, opts YOLOOptions) ([]models.DetectionResult, error) {
	if want := (4 + numClasses) * numAnchors; len(data) < want {
		return nil, fmt.Errorf("yolo output has %d values, want %d", len(data), want)
	}
	if opts.InputSize <= 0 {
		return nil, fmt.Errorf("invalid input size %d", opts.InputSize)
	}

	at := func(row, anchor int) float32 { return data[row*numAnchors+anchor] }
	size := float32(opts.InputSize)

	var candidates []models.DetectionResult
	for i := 0; i < numAnchors; i++ {
		best, score := -1, opts.ScoreThreshold
		for c := 0; c < numClasses; c++ {
			if s := at(4+c, i); s > score {
				best, score = c, s
			}
		}
		if best < 0 {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		candidates = append(candidates, models.DetectionResult{
			ClassID:    best,
			Label:      className(opts.Names, best),
			Confidence: score,
			Box: []float32{
				clamp01((cy - h/2) / size),
				clamp01((cx - w/2) / size),
				clamp01((cy + h/2) / size),
				clamp01((cx + w/2) / size),
			},
		})
	}

	return NonMaxSuppression(candidates, opts.IoUThreshold), nil
}

func className(names []string, id int) string {
	if id >= 0 && id < len(names) {
		return names[id]
	}
	return fmt.Sprintf("class_%d", id)
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// NonMaxSuppression keeps the most confident box of every overlapping group
// within a class.
func NonMaxSuppression(dets []models.DetectionResult, iouThreshold float32) []models.DetectionResult {
	sorted := make([]models.DetectionResult, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var kept []models.DetectionResult
	for _, d := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == d.ClassID && IoU(k.Box, d.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, d)
		}
	}

	return kept
}

// IoU of two [y1, x1, y2, x2] boxes.
func IoU(a, b []float32) float32 {
	if len(a) != 4 || len(b) != 4 {
		return 0
	}

	y1, x1 := max32(a[0], b[0]), max32(a[1], b[1])
	y2, x2 := min32(a[2], b[2]), min32(a[3], b[3])
	if y2 <= y1 || x2 <= x1 {
		return 0
	}

	inter := (y2 - y1) * (x2 - x1)
	union := (a[2]-a[0])*(a[3]-a[1]) + (b[2]-b[0])*(b[3]-b[1]) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
