package ui

import (
	"attendance/internal/attendance"
	"attendance/internal/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	log "github.com/sirupsen/logrus"
)

const (
	pageMark     = "Mark Attendance"
	pageView     = "View Attendance"
	pageClear    = "Clear Attendance"
	pageSettings = "Settings"
)

var pages = []string{pageMark, pageView, pageClear, pageSettings}

type AttendanceApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	config     *config.Config
	configPath string
	store      *attendance.Store

	content *fyne.Container
	live    *liveView
}

func CreateApp(cfg *config.Config, configPath string, store *attendance.Store) *AttendanceApp {
	a := app.New()
	w := a.NewWindow("Automated Attendance System")

	w.Resize(fyne.NewSize(1200, 700))

	return &AttendanceApp{
		fyneApp:    a,
		mainWin:    w,
		config:     cfg,
		configPath: configPath,
		store:      store,
	}
}

func (a *AttendanceApp) Run() {
	a.content = container.NewStack()
	a.live = newLiveView()

	nav := widget.NewRadioGroup(pages, func(page string) {
		a.showPage(page)
	})
	nav.Required = true

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("Navigation", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		nav,
	)

	split := container.NewHSplit(
		container.NewPadded(sidebar),
		container.NewPadded(a.content),
	)
	split.SetOffset(0.2)

	a.mainWin.SetContent(split)
	nav.SetSelected(pageMark)

	a.mainWin.SetCloseIntercept(func() {
		if err := a.config.Save(a.configPath); err != nil {
			log.WithError(err).Warn("failed to save config")
		}
		a.mainWin.Close()
	})

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func (a *AttendanceApp) showPage(page string) {
	var obj fyne.CanvasObject

	switch page {
	case pageView:
		obj = a.viewPage()
	case pageClear:
		obj = a.clearPage()
	case pageSettings:
		obj = a.settingsPage()
	default:
		obj = a.markPage()
	}

	a.content.Objects = []fyne.CanvasObject{obj}
	a.content.Refresh()
}

func pageTitle(text string) *widget.Label {
	return widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
}
