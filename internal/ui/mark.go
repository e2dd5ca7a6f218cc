package ui

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"attendance/internal/models"
	"attendance/processing/backend"
	"attendance/processing/capture"
	processing "attendance/processing/detector"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	log "github.com/sirupsen/logrus"
)

type liveView struct {
	videoCanvas  *canvas.Image
	latencyLabel *widget.Label
	fpsLabel     *widget.Label
	statusLabel  *widget.Label
	button       *widget.Button

	session *processing.Session
}

func newLiveView() *liveView {
	v := &liveView{
		videoCanvas:  canvas.NewImageFromImage(nil),
		latencyLabel: widget.NewLabel(formatLatency(0)),
		fpsLabel:     widget.NewLabel(formatFPS(0)),
		statusLabel:  widget.NewLabel(""),
	}
	v.videoCanvas.FillMode = canvas.ImageFillContain
	v.videoCanvas.SetMinSize(fyne.NewSize(480, 360))

	return v
}

func (v *liveView) container() fyne.CanvasObject {
	return container.NewBorder(
		container.NewHBox(v.fpsLabel, widget.NewSeparator(), v.latencyLabel, widget.NewSeparator(), v.statusLabel),
		nil, nil, nil,
		v.videoCanvas,
	)
}

func (v *liveView) active() bool {
	return v.session != nil
}

func formatFPS(v uint) string {
	return fmt.Sprintf("FPS: %d", v)
}

func formatLatency(v time.Duration) string {
	return fmt.Sprintf("Latency: %d ms", v.Milliseconds())
}

func (a *AttendanceApp) markPage() fyne.CanvasObject {
	rollEntry := widget.NewEntry()
	rollEntry.SetPlaceHolder("Roll Number")

	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Name")

	sectionEntry := widget.NewEntry()
	sectionEntry.SetPlaceHolder("Section")

	roleSelect := widget.NewSelect(models.RolesList[:], nil)
	roleSelect.SetSelected(string(models.RoleStudent))

	statusSelect := widget.NewSelect(models.StatusesList[:], nil)
	statusSelect.SetSelected(string(models.StatusPresent))

	result := widget.NewLabel("")
	result.Wrapping = fyne.TextWrapWord

	form := widget.NewForm(
		widget.NewFormItem("Roll Number", rollEntry),
		widget.NewFormItem("Name", nameEntry),
		widget.NewFormItem("Section", sectionEntry),
		widget.NewFormItem("Role", roleSelect),
		widget.NewFormItem("Status", statusSelect),
	)
	form.SubmitText = "Mark Attendance"
	form.OnSubmit = func() {
		rec, err := a.store.Append(models.Entry{
			RollNo:  rollEntry.Text,
			Name:    nameEntry.Text,
			Section: sectionEntry.Text,
			Role:    models.Role(roleSelect.Selected),
			Status:  models.Status(statusSelect.Selected),
		})
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}

		result.SetText(fmt.Sprintf("Attendance marked for %s (%s) as %s.", rec.Name, rec.RollNo, rec.Status))
		rollEntry.SetText("")
		nameEntry.SetText("")
	}

	liveButton := widget.NewButtonWithIcon("Mark Live Attendance", theme.MediaPlayIcon(), nil)
	liveButton.OnTapped = a.startLiveSession
	a.live.button = liveButton
	if a.live.active() {
		liveButton.Disable()
	}

	return container.NewBorder(
		container.NewVBox(pageTitle(pageMark), widget.NewSeparator(), form, result, widget.NewSeparator(), liveButton),
		nil, nil, nil,
		a.live.container(),
	)
}

func (a *AttendanceApp) startLiveSession() {
	if a.live.active() {
		return
	}

	det, err := backend.NewDetector(a.config)
	if err != nil {
		dialog.ShowError(err, a.mainWin)
		return
	}

	streamer, err := capture.NewStreamer(a.config)
	if err != nil {
		det.Stop()
		dialog.ShowError(err, a.mainWin)
		return
	}

	session := processing.NewSession(streamer, det, a.store, processing.SessionConfig{
		Duration:      time.Duration(a.config.Attendance.SessionSeconds) * time.Second,
		Section:       a.config.Attendance.DefaultSection,
		MinConfidence: a.config.GetSessionConfidence(),
		BufferSize:    a.config.GetFPS(),
	})

	if err := session.Start(); err != nil {
		session.Stop()
		dialog.ShowError(err, a.mainWin)
		return
	}

	a.live.session = session
	a.live.statusLabel.SetText("Recording...")
	a.live.button.Disable()

	done := make(chan struct{})
	go a.runPlayerLoop(session, done)
	go a.runStatLoop(session, done)

	go func() {
		marks, err := session.Wait(context.Background())
		close(done)

		fyne.Do(func() {
			a.live.session = nil
			a.live.statusLabel.SetText("")
			a.live.button.Enable()

			if err != nil {
				log.WithError(err).Error("live attendance session failed")
				dialog.ShowError(err, a.mainWin)
			}
			dialog.ShowInformation("Live Attendance", summarizeMarks(marks), a.mainWin)
		})
	}()
}

func summarizeMarks(marks []models.Mark) string {
	if len(marks) == 0 {
		return "No one was recognized."
	}

	lines := make([]string, 0, len(marks)+1)
	lines = append(lines, fmt.Sprintf("Marked %d present:", len(marks)))
	for _, m := range marks {
		lines = append(lines, fmt.Sprintf("%s (%s)", m.Label, m.RollNo))
	}

	return strings.Join(lines, "\n")
}

func (a *AttendanceApp) runStatLoop(session *processing.Session, done <-chan struct{}) {
	uiTicker := time.NewTicker(time.Millisecond * 200)
	defer uiTicker.Stop()

	for {
		select {
		case <-uiTicker.C:
			stats := session.Stats()
			fyne.Do(func() {
				a.live.latencyLabel.SetText(formatLatency(stats.Latency))
				a.live.fpsLabel.SetText(formatFPS(stats.FPS))
			})
		case <-done:
			return
		}
	}
}

func (a *AttendanceApp) runPlayerLoop(session *processing.Session, done <-chan struct{}) {
	fps := a.config.GetFPS()
	if fps == 0 {
		fps = 1
	}
	displayTicker := time.NewTicker(time.Second / time.Duration(fps))
	defer displayTicker.Stop()

	frames := session.Frames()
	var lastFrame image.Image

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if frame != nil {
				lastFrame = frame
			}

		case <-displayTicker.C:
			if lastFrame != nil {
				img := lastFrame
				fyne.Do(func() {
					a.live.videoCanvas.Image = img
					a.live.videoCanvas.Refresh()
				})
			}

		case <-done:
			return
		}
	}
}
