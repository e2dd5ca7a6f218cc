package cwidget

import (
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Input is a labelled entry that parses its text into T and reports parse
// errors inline. Empty text falls back to DefaultValue.
type Input[T any] struct {
	widget.BaseWidget

	labelWidget *widget.Label
	entryWidget *widget.Entry
	errorWidget *widget.Label

	LabelText    string
	Placeholder  string
	DefaultValue T

	OnChanged func(T)
	Parse     func(string) (T, error)
	Format    func(T) string
}

func newInput[T any](label, placeholder string, defaultValue T, parse func(string) (T, error), format func(T) string, onChanged func(T)) *Input[T] {
	input := &Input[T]{
		LabelText:    label,
		Placeholder:  placeholder,
		DefaultValue: defaultValue,
		OnChanged:    onChanged,
		Parse:        parse,
		Format:       format,
	}

	input.labelWidget = widget.NewLabel(input.title(defaultValue))
	input.labelWidget.TextStyle = fyne.TextStyle{Bold: true}

	input.entryWidget = widget.NewEntry()
	input.entryWidget.SetPlaceHolder(placeholder)

	input.errorWidget = widget.NewLabel("")
	input.errorWidget.Hidden = true
	input.errorWidget.TextStyle = fyne.TextStyle{Italic: true}
	input.errorWidget.Importance = widget.DangerImportance

	input.entryWidget.OnChanged = func(s string) {
		res, err := input.validate(s)
		input.SetError(err)

		if err == nil {
			if input.OnChanged != nil {
				input.OnChanged(res)
			}
			input.labelWidget.SetText(input.title(res))
		}
	}

	input.ExtendBaseWidget(input)

	return input
}

func (item *Input[T]) title(v T) string {
	return fmt.Sprintf("%s: %s", item.LabelText, item.Format(v))
}

func (item *Input[T]) validate(s string) (T, error) {
	if s == "" {
		return item.DefaultValue, nil
	}
	return item.Parse(s)
}

// NewIntInput accepts positive integers only.
func NewIntInput(label, placeholder string, defaultValue int, onChanged func(int)) *Input[int] {
	parse := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, errors.New("not an integer")
		}
		if n <= 0 {
			return 0, errors.New("must be greater than zero")
		}
		return n, nil
	}

	return newInput(label, placeholder, defaultValue, parse, strconv.Itoa, onChanged)
}

// NewRatioInput accepts a number between 0 and 1.
func NewRatioInput(label, placeholder string, defaultValue float32, onChanged func(float32)) *Input[float32] {
	parse := func(s string) (float32, error) {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, errors.New("not a number")
		}
		if v < 0 || v > 1 {
			return 0, errors.New("must be between 0 and 1")
		}
		return float32(v), nil
	}
	format := func(v float32) string {
		return strconv.FormatFloat(float64(v), 'f', 2, 32)
	}

	return newInput(label, placeholder, defaultValue, parse, format, onChanged)
}

func (item *Input[T]) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewVBox(
		item.labelWidget,
		item.entryWidget,
		item.errorWidget,
	)

	return widget.NewSimpleRenderer(c)
}

func (item *Input[T]) SetError(err error) {
	item.errorWidget.Hidden = err == nil
	if err != nil {
		item.errorWidget.SetText(err.Error())
	}
	item.errorWidget.Refresh()
}

func (item *Input[T]) SetText(text string) {
	item.entryWidget.SetText(text)
}
