package attendance

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Roster maps detector labels to roll numbers.
type Roster map[string]string

var ErrEmptyRoster = errors.New("roster has no students")

type rosterFile struct {
	Students Roster `yaml:"students"`
}

// LoadRoster reads a YAML roster. A missing file yields a nil roster, which
// accepts every label; a file without a students key is ErrEmptyRoster.
func LoadRoster(path string) (Roster, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}

	if rf.Students == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRoster, path)
	}

	return rf.Students, nil
}

// RollNo resolves a label. Without a roster the roll number is classID+1.
func (r Roster) RollNo(label string, classID int) (string, bool) {
	if r == nil {
		return strconv.Itoa(classID + 1), true
	}
	roll, ok := r[label]
	return roll, ok
}
