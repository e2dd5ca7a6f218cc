package attendance

import (
	"sort"
	"strings"
	"time"

	"attendance/internal/models"
)

const AllSections = "All"

// Filter narrows a record list. Zero values match everything; From and To
// are inclusive days.
type Filter struct {
	Section string
	From    time.Time
	To      time.Time
}

func (f Filter) Apply(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if f.match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (f Filter) match(rec models.Record) bool {
	if f.Section != "" && f.Section != AllSections && rec.Section != f.Section {
		return false
	}

	if f.From.IsZero() && f.To.IsZero() {
		return true
	}

	day, err := ParseDate(rec.Date)
	if err != nil {
		return false
	}
	if !f.From.IsZero() && day.Before(truncateDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(truncateDay(f.To)) {
		return false
	}

	return true
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, strings.TrimSpace(s))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Sections returns the distinct non-empty sections, sorted.
func Sections(records []models.Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range records {
		if rec.Section == "" {
			continue
		}
		if _, ok := seen[rec.Section]; ok {
			continue
		}
		seen[rec.Section] = struct{}{}
		out = append(out, rec.Section)
	}
	sort.Strings(out)
	return out
}

// DateBounds returns the earliest and latest parseable dates. ok is false
// when no record has a valid date.
func DateBounds(records []models.Record) (min, max time.Time, ok bool) {
	for _, rec := range records {
		day, err := ParseDate(rec.Date)
		if err != nil {
			continue
		}
		if !ok || day.Before(min) {
			min = day
		}
		if !ok || day.After(max) {
			max = day
		}
		ok = true
	}
	return min, max, ok
}
