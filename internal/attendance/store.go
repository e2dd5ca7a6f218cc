package attendance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"attendance/internal/models"
)

var ErrBadHeader = errors.New("attendance file has an unexpected header")

// Store is the CSV attendance table. Rows are only ever appended; Clear
// resets the file to its header.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

type StoreOption func(*Store)

// WithClock replaces time.Now for date and time stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Open makes sure the folder and the file with its header exist.
func Open(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create attendance folder: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureHeader(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) ensureHeader() error {
	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat attendance file: %w", err)
	}

	return s.rewrite(nil)
}

func (s *Store) rewrite(records []models.Record) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open attendance file: %w", err)
	}
	defer f.Close()

	return Export(f, records)
}

func (s *Store) Load() ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureHeader(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open attendance file: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

func readRecords(r io.Reader) ([]models.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !validHeader(header) {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, header)
	}

	var records []models.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, models.RecordFromRow(row))
	}

	return records, nil
}

func validHeader(header []string) bool {
	if len(header) != len(models.Columns) {
		return false
	}
	for i, col := range models.Columns {
		// Spreadsheet tools like to prepend a BOM.
		if i == 0 && len(header[i]) >= 3 && header[i][:3] == "\xef\xbb\xbf" {
			header[i] = header[i][3:]
		}
		if header[i] != col {
			return false
		}
	}
	return true
}

// Append validates e, stamps it with the current date and time and writes it
// as a new row.
func (s *Store) Append(e models.Entry) (models.Record, error) {
	e, err := Validate(e)
	if err != nil {
		return models.Record{}, err
	}

	now := s.now()
	rec := models.Record{
		RollNo:  e.RollNo,
		Name:    e.Name,
		Section: e.Section,
		Role:    string(e.Role),
		Date:    now.Format(models.DateLayout),
		Time:    now.Format(models.TimeLayout),
		Status:  string(e.Status),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureHeader(); err != nil {
		return models.Record{}, err
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return models.Record{}, fmt.Errorf("open attendance file: %w", err)
	}
	defer f.Close()

	if err := checkHeader(f); err != nil {
		return models.Record{}, err
	}
	if err := terminateLastLine(f); err != nil {
		return models.Record{}, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(rec.Row()); err != nil {
		return models.Record{}, fmt.Errorf("write attendance row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return models.Record{}, fmt.Errorf("flush attendance row: %w", err)
	}

	return rec, nil
}

// checkHeader rejects a file whose first row is not the attendance header.
func checkHeader(f *os.File) error {
	cr := csv.NewReader(io.NewSectionReader(f, 0, 1<<20))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if !validHeader(header) {
		return fmt.Errorf("%w: %v", ErrBadHeader, header)
	}
	return nil
}

// terminateLastLine adds the newline a hand-edited file may be missing, so
// the next row does not merge into the last one.
func terminateLastLine(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("read %s: %w", f.Name(), err)
	}
	if last[0] == '\n' {
		return nil
	}

	if _, err := f.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write %s: %w", f.Name(), err)
	}
	return nil
}

// Clear drops every row and keeps the header.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rewrite(nil)
}

// Export writes the header followed by records.
func Export(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()

	return cw.Error()
}
