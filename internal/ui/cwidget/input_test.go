package cwidget

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestIntInput(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	var got int
	in := NewIntInput("FPS", "Enter integer", 24, func(v int) { got = v })
	assert.Equal(t, "FPS: 24", in.labelWidget.Text)

	test.Type(in.entryWidget, "12")
	assert.Equal(t, 12, got)
	assert.Equal(t, "FPS: 12", in.labelWidget.Text)
	assert.True(t, in.errorWidget.Hidden)

	in.entryWidget.OnChanged("0")
	assert.False(t, in.errorWidget.Hidden)
	assert.Equal(t, 12, got, "invalid input does not propagate")

	in.entryWidget.OnChanged("")
	assert.Equal(t, 24, got, "empty input restores the default")
}

func TestRatioInput(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	var got float32
	in := NewRatioInput("Confidence", "0..1", 0, func(v float32) { got = v })

	in.entryWidget.OnChanged("0.75")
	assert.InDelta(t, 0.75, got, 1e-6)
	assert.Equal(t, "Confidence: 0.75", in.labelWidget.Text)

	in.entryWidget.OnChanged("1.5")
	assert.False(t, in.errorWidget.Hidden)
	assert.InDelta(t, 0.75, got, 1e-6)
}
