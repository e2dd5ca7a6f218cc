package ui

import (
	"path/filepath"
	"testing"
	"time"

	"attendance/internal/attendance"
	"attendance/internal/config"
	"attendance/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *AttendanceApp {
	t.Helper()

	dir := t.TempDir()
	store, err := attendance.Open(filepath.Join(dir, "attendance.csv"))
	require.NoError(t, err)

	a := test.NewApp()
	t.Cleanup(a.Quit)

	return &AttendanceApp{
		fyneApp:    a,
		mainWin:    a.NewWindow("test"),
		config:     config.NewDefaultConfig(),
		configPath: filepath.Join(dir, "config.json"),
		store:      store,
		live:       newLiveView(),
	}
}

func labels(obj fyne.CanvasObject) []string {
	var out []string
	var walk func(fyne.CanvasObject)
	walk = func(o fyne.CanvasObject) {
		switch v := o.(type) {
		case *widget.Label:
			out = append(out, v.Text)
		case *fyne.Container:
			for _, child := range v.Objects {
				walk(child)
			}
		}
	}
	walk(obj)
	return out
}

func TestViewPageEmpty(t *testing.T) {
	a := newTestApp(t)

	assert.Contains(t, labels(a.viewPage()), noRecordsText)
}

func TestBuildFilter(t *testing.T) {
	f, err := buildFilter("B", "2024-03-01", " ")
	require.NoError(t, err)
	assert.Equal(t, "B", f.Section)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), f.From)
	assert.True(t, f.To.IsZero())

	_, err = buildFilter(attendance.AllSections, "03/01/2024", "")
	assert.Error(t, err)

	_, err = buildFilter(attendance.AllSections, "2024-03-02", "2024-03-01")
	assert.Error(t, err)
}

func TestSummarizeMarks(t *testing.T) {
	assert.Equal(t, "No one was recognized.", summarizeMarks(nil))

	got := summarizeMarks([]models.Mark{
		{RollNo: "AI-22016", Label: "Abdul Samad"},
		{RollNo: "2", Label: "guest"},
	})
	assert.Equal(t, "Marked 2 present:\nAbdul Samad (AI-22016)\nguest (2)", got)
}

func TestShowPageSwitchesContent(t *testing.T) {
	a := newTestApp(t)
	a.content = container.NewStack()

	a.showPage(pageClear)
	require.Len(t, a.content.Objects, 1)
	assert.Contains(t, labels(a.content.Objects[0]), pageClear)
}
