package models

type Role string

const (
	RoleStudent  Role = "Student"
	RoleTeacher  Role = "Teacher"
	RoleEmployee Role = "Employee"
	RoleGuest    Role = "Guest"
)

var RolesList = [...]string{
	string(RoleStudent),
	string(RoleTeacher),
	string(RoleEmployee),
	string(RoleGuest),
}

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLate    Status = "Late"
)

var StatusesList = [...]string{
	string(StatusPresent),
	string(StatusAbsent),
	string(StatusLate),
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Columns is the header row of the attendance file.
var Columns = [...]string{"Roll No", "Name", "Section", "Role", "Date", "Time", "Status"}

// Entry is what a caller submits; date and time are stamped when it is stored.
type Entry struct {
	RollNo  string `json:"roll_no"`
	Name    string `json:"name"`
	Section string `json:"section"`
	Role    Role   `json:"role"`
	Status  Status `json:"status"`
}

// Record is one row of the attendance file.
type Record struct {
	RollNo  string `json:"roll_no"`
	Name    string `json:"name"`
	Section string `json:"section"`
	Role    string `json:"role"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Status  string `json:"status"`
}

func (r Record) Row() []string {
	return []string{r.RollNo, r.Name, r.Section, r.Role, r.Date, r.Time, r.Status}
}

// RecordFromRow maps a CSV row onto a Record, padding missing trailing cells.
func RecordFromRow(row []string) Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	return Record{
		RollNo:  cell(0),
		Name:    cell(1),
		Section: cell(2),
		Role:    cell(3),
		Date:    cell(4),
		Time:    cell(5),
		Status:  cell(6),
	}
}
