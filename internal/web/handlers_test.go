package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"attendance/internal/attendance"
	"attendance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *attendance.Store) {
	t.Helper()

	clock := time.Date(2024, 3, 4, 8, 15, 0, 0, time.Local)
	store, err := attendance.Open(filepath.Join(t.TempDir(), "attendance.csv"),
		attendance.WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	return NewServer(store, "127.0.0.1", 0), store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, store *attendance.Store, section string) {
	t.Helper()
	_, err := store.Append(models.Entry{RollNo: "1", Name: "x", Section: section, Role: models.RoleStudent, Status: models.StatusPresent})
	require.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreate(t *testing.T) {
	s, store := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/attendance",
		`{"roll_no":"12","name":"Ana","section":"B","role":"Teacher","status":"Late"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got models.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2024-03-04", got.Date)
	assert.Equal(t, "08:15:00", got.Time)

	records, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCreate_Invalid(t *testing.T) {
	s, _ := newTestServer(t)

	tests := map[string]string{
		"bad json":       `{`,
		"missing fields": `{"roll_no":"","name":"Ana","section":"B","role":"Teacher","status":"Late"}`,
		"bad role":       `{"roll_no":"1","name":"Ana","section":"B","role":"Boss","status":"Late"}`,
		"bad status":     `{"roll_no":"1","name":"Ana","section":"B","role":"Guest","status":"Gone"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/attendance", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestList_FiltersBySection(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store, "A")
	seed(t, store, "B")

	rec := do(t, s, http.MethodGet, "/api/v1/attendance?section=B", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "B", resp.Records[0].Section)
}

func TestList_DateRange(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store, "A")

	tests := []struct {
		query string
		code  int
		count int
	}{
		{"from=2024-03-04&to=2024-03-04", http.StatusOK, 1},
		{"from=2024-03-05", http.StatusOK, 0},
		{"from=yesterday", http.StatusBadRequest, 0},
		{"from=2024-03-05&to=2024-03-01", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		rec := do(t, s, http.MethodGet, "/api/v1/attendance?"+tt.query, "")
		require.Equal(t, tt.code, rec.Code, tt.query)
		if tt.code != http.StatusOK {
			continue
		}
		var resp ListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tt.count, resp.Count, tt.query)
	}
}

func TestSections(t *testing.T) {
	s, store := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/attendance/sections", "")
	assert.JSONEq(t, `{"sections":[]}`, rec.Body.String())

	seed(t, store, "B")
	seed(t, store, "A")

	rec = do(t, s, http.MethodGet, "/api/v1/attendance/sections", "")
	assert.JSONEq(t, `{"sections":["A","B"],"from":"2024-03-04","to":"2024-03-04"}`, rec.Body.String())
}

func TestExport(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store, "A")

	rec := do(t, s, http.MethodGet, "/api/v1/attendance/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance.csv")
	assert.Equal(t, "Roll No,Name,Section,Role,Date,Time,Status\n1,x,A,Student,2024-03-04,08:15:00,Present\n", rec.Body.String())
}

func TestClear(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store, "A")

	rec := do(t, s, http.MethodDelete, "/api/v1/attendance", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	records, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}
