package attendance

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DayLog is the plain text file of one day of live capture, one
// "roll, label" line per person.
type DayLog struct {
	mu       sync.Mutex
	path     string
	existing map[string]struct{}
}

func DayLogPath(folder string, day time.Time) string {
	return filepath.Join(folder, day.Format("2006-01-02")+".txt")
}

func OpenDayLog(folder string, day time.Time) (*DayLog, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, fmt.Errorf("create day log folder: %w", err)
	}

	d := &DayLog{
		path:     DayLogPath(folder, day),
		existing: make(map[string]struct{}),
	}

	f, err := os.Open(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open day log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		d.existing[sc.Text()] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read day log: %w", err)
	}

	return d, nil
}

func (d *DayLog) Path() string { return d.path }

func entryLine(roll, label string) string {
	return roll + ", " + label
}

func (d *DayLog) Has(roll, label string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.existing[entryLine(roll, label)]
	return ok
}

// Record appends the entry unless the file already has it. It reports
// whether a line was written.
func (d *DayLog) Record(roll, label string) (bool, error) {
	line := entryLine(roll, label)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.existing[line]; ok {
		return false, nil
	}

	f, err := os.OpenFile(d.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return false, fmt.Errorf("open day log: %w", err)
	}
	defer f.Close()

	if err := terminateLastLine(f); err != nil {
		return false, err
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		return false, fmt.Errorf("write day log: %w", err)
	}
	d.existing[line] = struct{}{}

	log.WithFields(log.Fields{"roll": roll, "label": label}).Info("added attendance entry")

	return true, nil
}
