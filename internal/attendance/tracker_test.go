package attendance

import (
	"testing"

	"attendance/internal/models"

	"github.com/stretchr/testify/assert"
)

func det(classID int, label string, conf float32) models.DetectionResult {
	return models.DetectionResult{ClassID: classID, Label: label, Confidence: conf, Box: []float32{0, 0, 1, 1}}
}

func TestTracker_OnceMode(t *testing.T) {
	tr := NewTracker(TrackerOptions{})

	marks := tr.Observe(1, []models.DetectionResult{det(0, "alice", 0.2), det(2, "bob", 0.9), det(0, "alice", 0.4)})
	assert.Len(t, marks, 2)
	assert.Equal(t, "1", marks[0].RollNo)
	assert.Equal(t, "3", marks[1].RollNo)

	assert.Empty(t, tr.Observe(1000, []models.DetectionResult{det(0, "alice", 0.9)}))
	assert.ElementsMatch(t, []string{"alice", "bob"}, tr.Seen())
}

func TestTracker_RosterAndConfidence(t *testing.T) {
	tr := NewTracker(TrackerOptions{
		Roster:        Roster{"Abdul Samad": "AI-22016"},
		MinConfidence: 0.7,
		Cooldown:      30,
	})

	assert.Empty(t, tr.Observe(1, []models.DetectionResult{det(0, "Stranger", 0.99)}))
	assert.Empty(t, tr.Observe(2, []models.DetectionResult{det(1, "Abdul Samad", 0.7)}), "threshold is strict")

	marks := tr.Observe(3, []models.DetectionResult{det(1, "Abdul Samad", 0.71)})
	if assert.Len(t, marks, 1) {
		assert.Equal(t, "AI-22016", marks[0].RollNo)
		assert.Equal(t, uint64(3), marks[0].Frame)
	}
}

func TestTracker_Cooldown(t *testing.T) {
	tr := NewTracker(TrackerOptions{Cooldown: 30})
	d := []models.DetectionResult{det(0, "alice", 0.9)}

	assert.Len(t, tr.Observe(2, d), 1, "first sighting is always eligible")
	assert.Empty(t, tr.Observe(32, d), "2+30 is not below 32")
	assert.Len(t, tr.Observe(33, d), 1)
	assert.Empty(t, tr.Observe(40, d))
}

func TestTracker_IgnoresEmptyLabels(t *testing.T) {
	tr := NewTracker(TrackerOptions{})
	assert.Empty(t, tr.Observe(1, []models.DetectionResult{det(0, "", 1)}))
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(TrackerOptions{})
	d := []models.DetectionResult{det(0, "alice", 0.9)}

	tr.Observe(1, d)
	tr.Reset()

	assert.Len(t, tr.Observe(2, d), 1)
}
