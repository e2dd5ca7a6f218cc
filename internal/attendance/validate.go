package attendance

import (
	"errors"
	"fmt"
	"strings"

	"attendance/internal/models"
)

var (
	ErrMissingFields = errors.New("please fill in all fields")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidStatus = errors.New("invalid attendance status")
)

// Validate trims the entry and checks it against the allowed roles and statuses.
func Validate(e models.Entry) (models.Entry, error) {
	e.RollNo = strings.TrimSpace(e.RollNo)
	e.Name = strings.TrimSpace(e.Name)
	e.Section = strings.TrimSpace(e.Section)

	if e.RollNo == "" || e.Name == "" || e.Section == "" {
		return e, ErrMissingFields
	}

	if !contains(models.RolesList[:], string(e.Role)) {
		return e, fmt.Errorf("%w: %q", ErrInvalidRole, e.Role)
	}

	if !contains(models.StatusesList[:], string(e.Status)) {
		return e, fmt.Errorf("%w: %q", ErrInvalidStatus, e.Status)
	}

	return e, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
