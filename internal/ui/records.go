package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance/internal/attendance"
	"attendance/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	log "github.com/sirupsen/logrus"
)

const noRecordsText = "No attendance records found."

func (a *AttendanceApp) viewPage() fyne.CanvasObject {
	title := pageTitle(pageView)

	records, err := a.store.Load()
	if err != nil {
		log.WithError(err).Error("failed to load attendance")
		return container.NewVBox(title, widget.NewSeparator(), widget.NewLabel(err.Error()))
	}
	if len(records) == 0 {
		return container.NewVBox(title, widget.NewSeparator(), widget.NewLabel(noRecordsText))
	}

	sectionSelect := widget.NewSelect(append([]string{attendance.AllSections}, attendance.Sections(records)...), nil)
	sectionSelect.SetSelected(attendance.AllSections)

	fromEntry := widget.NewEntry()
	toEntry := widget.NewEntry()
	fromEntry.SetPlaceHolder(models.DateLayout)
	toEntry.SetPlaceHolder(models.DateLayout)
	if first, last, ok := attendance.DateBounds(records); ok {
		fromEntry.SetText(first.Format(models.DateLayout))
		toEntry.SetText(last.Format(models.DateLayout))
	}

	shown := records
	table := newRecordTable(func() []models.Record { return shown })
	countLabel := widget.NewLabel(formatCount(len(shown)))

	apply := func() {
		filter, err := buildFilter(sectionSelect.Selected, fromEntry.Text, toEntry.Text)
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		shown = filter.Apply(records)
		countLabel.SetText(formatCount(len(shown)))
		table.Refresh()
	}

	applyButton := widget.NewButtonWithIcon("Apply", theme.SearchIcon(), apply)
	exportButton := widget.NewButtonWithIcon("Export CSV", theme.DocumentSaveIcon(), func() {
		a.exportRecords(shown)
	})

	filters := container.NewGridWithColumns(3,
		container.NewVBox(widget.NewLabel("Section:"), sectionSelect),
		container.NewVBox(widget.NewLabel("From:"), fromEntry),
		container.NewVBox(widget.NewLabel("To:"), toEntry),
	)

	return container.NewBorder(
		container.NewVBox(
			title,
			widget.NewSeparator(),
			filters,
			container.NewHBox(applyButton, exportButton, countLabel),
		),
		nil, nil, nil,
		table,
	)
}

func formatCount(n int) string {
	return fmt.Sprintf("%d records", n)
}

// buildFilter parses the date entries; blank entries leave that bound open.
func buildFilter(section, from, to string) (attendance.Filter, error) {
	f := attendance.Filter{Section: section}

	var err error
	if s := strings.TrimSpace(from); s != "" {
		if f.From, err = attendance.ParseDate(s); err != nil {
			return f, fmt.Errorf("invalid start date %q", s)
		}
	}
	if s := strings.TrimSpace(to); s != "" {
		if f.To, err = attendance.ParseDate(s); err != nil {
			return f, fmt.Errorf("invalid end date %q", s)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, errors.New("end date is before start date")
	}

	return f, nil
}

// newRecordTable renders the header in row 0 and the records below it.
func newRecordTable(rows func() []models.Record) *widget.Table {
	table := widget.NewTable(
		func() (int, int) {
			return len(rows()) + 1, len(models.Columns)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText(models.Columns[id.Col])
				return
			}

			label.TextStyle = fyne.TextStyle{}
			records := rows()
			if id.Row-1 >= len(records) {
				label.SetText("")
				return
			}
			label.SetText(records[id.Row-1].Row()[id.Col])
		},
	)

	widths := []float32{100, 180, 80, 90, 110, 90, 90}
	for col, w := range widths {
		table.SetColumnWidth(col, w)
	}

	return table
}

func (a *AttendanceApp) exportRecords(records []models.Record) {
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		if w == nil {
			return
		}
		defer w.Close()

		if err := attendance.Export(w, records); err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}

		log.WithFields(log.Fields{"path": w.URI().Path(), "records": len(records)}).Info("attendance exported")
	}, a.mainWin)

	save.SetFileName(fmt.Sprintf("attendance-%s.csv", time.Now().Format(models.DateLayout)))
	save.Show()
}

func (a *AttendanceApp) clearPage() fyne.CanvasObject {
	status := widget.NewLabel("")

	clearButton := widget.NewButtonWithIcon("Clear All Attendance", theme.DeleteIcon(), func() {
		dialog.ShowConfirm("Clear Attendance", "Delete every attendance record?", func(ok bool) {
			if !ok {
				return
			}
			if err := a.store.Clear(); err != nil {
				dialog.ShowError(err, a.mainWin)
				return
			}
			status.SetText("All attendance records have been cleared.")
		}, a.mainWin)
	})
	clearButton.Importance = widget.DangerImportance

	return container.NewVBox(
		pageTitle(pageClear),
		widget.NewSeparator(),
		widget.NewLabel("This removes every record from "+a.store.Path()+"."),
		clearButton,
		status,
	)
}
