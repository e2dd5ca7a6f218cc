package ui

import (
	"strconv"

	"attendance/internal/config"
	"attendance/internal/ui/cwidget"
	"attendance/processing/capture"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	log "github.com/sirupsen/logrus"
)

var backendsList = []string{string(config.BackendONNX), string(config.BackendRemote)}

func (a *AttendanceApp) settingsPage() fyne.CanvasObject {
	dynamicSettings := container.NewVBox()

	sourceTypeSelect := widget.NewSelect(config.SourcesList[:], func(s string) {
		a.config.SetSource(config.SourceType(s))
		a.refreshSourceSettings(dynamicSettings, config.SourceType(s))
	})
	sourceTypeSelect.SetSelected(string(a.config.GetSource()))

	return container.NewVScroll(container.NewVBox(
		pageTitle(pageSettings),
		widget.NewSeparator(),
		widget.NewLabel("Source Type:"),
		sourceTypeSelect,
		dynamicSettings,
		widget.NewSeparator(),
		a.detectorSettings(),
		widget.NewSeparator(),
		a.streamSettings(),
	))
}

func (a *AttendanceApp) streamSettings() fyne.CanvasObject {
	fpsInput := cwidget.NewIntInput(
		"FPS",
		"Enter integer",
		int(a.config.GetFPS()),
		func(i int) {
			a.config.SetFPS(uint(i))
		},
	)

	widthInput := cwidget.NewIntInput(
		"Width",
		"Enter integer",
		a.config.GetWidth(),
		func(i int) {
			a.config.SetWidth(i)
		},
	)

	heightInput := cwidget.NewIntInput(
		"Height",
		"Enter integer",
		a.config.GetHeight(),
		func(i int) {
			a.config.SetHeight(i)
		},
	)

	confidenceInput := cwidget.NewRatioInput(
		"Min confidence",
		"0 accepts every detection",
		a.config.GetSessionConfidence(),
		func(v float32) {
			a.config.SetSessionConfidence(v)
		},
	)

	saveCfg := widget.NewButtonWithIcon("Save config", theme.DocumentSaveIcon(), func() {
		if err := a.config.Save(a.configPath); err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		log.WithField("path", a.configPath).Info("config saved")
	})

	return container.NewVBox(fpsInput, widthInput, heightInput, confidenceInput, saveCfg)
}

func (a *AttendanceApp) detectorSettings() fyne.CanvasObject {
	weightsEntry := widget.NewEntry()
	weightsEntry.SetText(a.config.GetWeightsPath())
	weightsEntry.OnChanged = a.config.SetWeightsPath

	urlEntry := widget.NewEntry()
	urlEntry.SetPlaceHolder(config.DefaultDetectorURL)
	urlEntry.SetText(a.config.GetDetectorURL())
	urlEntry.OnChanged = a.config.SetDetectorURL

	backendSelect := widget.NewSelect(backendsList, func(s string) {
		a.config.SetDetectorBackend(config.BackendType(s))
		if config.BackendType(s) == config.BackendRemote {
			weightsEntry.Disable()
			urlEntry.Enable()
		} else {
			weightsEntry.Enable()
			urlEntry.Disable()
		}
	})
	backendSelect.SetSelected(string(a.config.GetDetectorBackend()))

	return widget.NewForm(
		widget.NewFormItem("Detector", backendSelect),
		widget.NewFormItem("Weights", weightsEntry),
		widget.NewFormItem("Server", urlEntry),
	)
}

func (a *AttendanceApp) refreshSourceSettings(box *fyne.Container, source config.SourceType) {
	box.Objects = nil

	switch source {
	case config.SourceLocal:
		pathEntry := widget.NewEntry()
		pathEntry.SetPlaceHolder("/path/to/video.mp4")
		pathEntry.SetText(a.config.GetLocalPath())

		pathEntry.OnChanged = a.config.SetLocalPath

		fileBtn := widget.NewButtonWithIcon("Open File", theme.FolderOpenIcon(), func() {
			dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
				if err == nil && reader != nil {
					defer reader.Close()
					pathEntry.SetText(reader.URI().Path())
				}
			}, a.mainWin)
		})

		box.Add(widget.NewLabel("Video Path:"))
		box.Add(container.NewBorder(nil, nil, nil, fileBtn, pathEntry))

	case config.SourceWebcam:
		deviceSelect := widget.NewSelect([]string{}, a.config.SetWebcamDevice)
		deviceSelect.PlaceHolder = "Loading cameras..."
		deviceSelect.Disable()

		box.Add(widget.NewLabel("Select Camera:"))
		box.Add(deviceSelect)

		go func() {
			devices, err := capture.ListCameras()

			fyne.Do(func() {
				switch {
				case err != nil:
					dialog.ShowError(err, a.mainWin)
					deviceSelect.PlaceHolder = "Error listing cameras"
				case len(devices) == 0:
					deviceSelect.PlaceHolder = "No cameras found"
				default:
					deviceSelect.Options = devices
					deviceSelect.Enable()

					if id := a.config.GetWebcamDevice(); id != "" {
						deviceSelect.SetSelected(id)
					} else {
						deviceSelect.SetSelected(devices[0])
					}
				}
				deviceSelect.Refresh()
			})
		}()

	case config.SourceOpenCV:
		indexEntry := widget.NewEntry()
		indexEntry.SetText(strconv.Itoa(a.config.GetOpenCVDevice()))
		indexEntry.Validator = func(s string) error {
			_, err := strconv.ParseUint(s, 10, 16)
			return err
		}
		indexEntry.OnChanged = func(s string) {
			if n, err := strconv.ParseUint(s, 10, 16); err == nil {
				a.config.SetOpenCVDevice(int(n))
			}
		}

		box.Add(widget.NewLabel("Device Index:"))
		box.Add(indexEntry)
	}

	box.Refresh()
}
