package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, SourceWebcam, cfg.GetSource())
	assert.Equal(t, uint(24), cfg.GetFPS())
	assert.Equal(t, filepath.Join("Attendance", "attendance.csv"), cfg.AttendanceFile())
	assert.Equal(t, 3, cfg.Attendance.SessionSeconds)
	assert.Equal(t, float32(0.7), cfg.Attendance.MinConfidence)
	assert.Zero(t, cfg.GetSessionConfidence())
	assert.Equal(t, uint64(30), cfg.Attendance.Cooldown)
	assert.Equal(t, uint64(2), cfg.Attendance.FrameSkip)
	assert.Equal(t, 20, cfg.Training.Epochs)
	assert.Equal(t, BackendONNX, cfg.Detector.Backend)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := NewDefaultConfig()
	cfg.SetFPS(10)
	cfg.SetWidth(320)
	cfg.SetHeight(240)
	cfg.SetSource(SourceOpenCV)
	cfg.Attendance.Folder = "records"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, uint(10), loaded.GetFPS())
	assert.Equal(t, 320, loaded.GetWidth())
	assert.Equal(t, 240, loaded.GetHeight())
	assert.Equal(t, SourceOpenCV, loaded.GetSource())
	assert.Equal(t, filepath.Join("records", "attendance.csv"), loaded.AttendanceFile())
}

func TestSave_TruncatesPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, make([]byte, 64*1024), 0644))

	require.NoError(t, NewDefaultConfig().Save(path))

	_, err := LoadConfigFile(path)
	require.NoError(t, err)
}

func TestLoadConfigFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFile_EnvOverrides(t *testing.T) {
	t.Setenv("ATTENDANCE_FOLDER", "/tmp/att")
	t.Setenv("ATTENDANCE_DETECTOR_BACKEND", "remote")
	t.Setenv("ATTENDANCE_DETECTOR_URL", "detector:9000")
	t.Setenv("ATTENDANCE_SESSION_SECONDS", "5")
	t.Setenv("ATTENDANCE_EPOCHS", "-3")

	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/att", cfg.Attendance.Folder)
	assert.Equal(t, BackendRemote, cfg.Detector.Backend)
	assert.Equal(t, "detector:9000", cfg.Detector.URL)
	assert.Equal(t, 5, cfg.Attendance.SessionSeconds)
	assert.Equal(t, 20, cfg.Training.Epochs, "invalid values keep the default")
}

func TestDetectorAccessors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := NewDefaultConfig()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg.SetDetectorBackend(BackendRemote)
			cfg.SetDetectorURL("10.0.0.5:9000")
			cfg.SetWeightsPath("runs/attendance/weights/best.onnx")
			_ = cfg.GetDetectorBackend()
			_ = cfg.GetWeightsPath()
		}()
	}
	wg.Wait()

	cfg.SetLocalPath("class.mp4")
	cfg.SetWebcamDevice("/dev/video2")
	cfg.SetOpenCVDevice(1)
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, loaded.GetDetectorBackend())
	assert.Equal(t, "10.0.0.5:9000", loaded.GetDetectorURL())
	assert.Equal(t, "runs/attendance/weights/best.onnx", loaded.GetWeightsPath())
	assert.Equal(t, "class.mp4", loaded.GetLocalPath())
	assert.Equal(t, "/dev/video2", loaded.GetWebcamDevice())
	assert.Equal(t, 1, loaded.GetOpenCVDevice())
}
