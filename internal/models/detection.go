package models

// DetectionResult is one object reported by a detector for a single frame.
// Box holds normalized coordinates in the order y1, x1, y2, x2.
type DetectionResult struct {
	ClassID    int       `json:"class_id"`
	Label      string    `json:"label"`
	Confidence float32   `json:"confidence"`
	Box        []float32 `json:"box"`
}

// Valid reports whether the box has all four coordinates.
func (d DetectionResult) Valid() bool {
	return len(d.Box) == 4
}

// Mark is a sighting accepted by the attendance tracker.
type Mark struct {
	RollNo     string  `json:"roll_no"`
	Label      string  `json:"label"`
	ClassID    int     `json:"class_id"`
	Confidence float32 `json:"confidence"`
	Frame      uint64  `json:"frame"`
}
