package attendance

import (
	"testing"

	"attendance/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	valid := models.Entry{RollNo: "1", Name: "Ana", Section: "A", Role: models.RoleTeacher, Status: models.StatusAbsent}

	tests := []struct {
		name    string
		mutate  func(e *models.Entry)
		wantErr error
	}{
		{"valid", func(e *models.Entry) {}, nil},
		{"blank roll", func(e *models.Entry) { e.RollNo = " " }, ErrMissingFields},
		{"blank name", func(e *models.Entry) { e.Name = "" }, ErrMissingFields},
		{"blank section", func(e *models.Entry) { e.Section = "\t" }, ErrMissingFields},
		{"unknown role", func(e *models.Entry) { e.Role = "Admin" }, ErrInvalidRole},
		{"empty role", func(e *models.Entry) { e.Role = "" }, ErrInvalidRole},
		{"unknown status", func(e *models.Entry) { e.Status = "Excused" }, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)

			_, err := Validate(e)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_Trims(t *testing.T) {
	e, err := Validate(models.Entry{RollNo: " 3 ", Name: " Bo ", Section: " C ", Role: models.RoleGuest, Status: models.StatusLate})
	assert.NoError(t, err)
	assert.Equal(t, "3", e.RollNo)
	assert.Equal(t, "Bo", e.Name)
	assert.Equal(t, "C", e.Section)
}
