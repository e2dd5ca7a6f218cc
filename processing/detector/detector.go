package processing

import (
	"image"

	"attendance/internal/models"
)

// Detector consumes frames and publishes one result set per processed frame.
// Callers offer frames without blocking; a busy detector drops them.
type Detector interface {
	Start()
	Stop()
	Input() chan<- image.Image
	Output() <-chan []models.DetectionResult
}
