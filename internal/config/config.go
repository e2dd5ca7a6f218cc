package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

type SourceType string

const (
	SourceLocal  SourceType = "Local"
	SourceWebcam SourceType = "Web-Camera"
	SourceOpenCV SourceType = "OpenCV"

	DefaultConfigPath  string = "config.json"
	DefaultDetectorURL string = "localhost:8080"
)

var SourcesList = [...]string{
	string(SourceLocal),
	string(SourceWebcam),
	string(SourceOpenCV),
}

type BackendType string

const (
	BackendONNX   BackendType = "onnx"
	BackendRemote BackendType = "remote"
)

type LocalConfig struct {
	Path string `json:"path"`
}

type WebcamConfig struct {
	DeviceID string `json:"device_id"`
}

type OpenCVConfig struct {
	DeviceIndex int `json:"device_index"`
}

type DetectorConfig struct {
	Backend      BackendType `json:"backend"`
	URL          string      `json:"url"`
	WeightsPath  string      `json:"weights_path"`
	DatasetPath  string      `json:"dataset_path"`
	InputSize    int         `json:"input_size"`
	IoUThreshold float32     `json:"iou_threshold"`
}

type AttendanceConfig struct {
	Folder         string `json:"folder"`
	File           string `json:"file"`
	DailyFolder    string `json:"daily_folder"`
	RosterPath     string `json:"roster_path"`
	DefaultSection string `json:"default_section"`

	// GUI live session; zero accepts every detection.
	SessionSeconds    int     `json:"session_seconds"`
	SessionConfidence float32 `json:"session_confidence"`

	// Headless live capture.
	MinConfidence float32 `json:"min_confidence"`
	Cooldown      uint64  `json:"cooldown_frames"`
	FrameSkip     uint64  `json:"frame_skip"`
}

type TrainingConfig struct {
	Model   string `json:"model"`
	Data    string `json:"data"`
	Epochs  int    `json:"epochs"`
	Device  string `json:"device"`
	Project string `json:"project"`
	Name    string `json:"name"`
	Export  bool   `json:"export_onnx"`
}

type Config struct {
	mu sync.RWMutex

	ActiveSource SourceType `json:"active_source"`
	TargetFPS    uint       `json:"target_fps"`
	ScaledWidth  int        `json:"scaled_width"`
	ScaledHeight int        `json:"scaled_height"`
	LogLevel     string     `json:"log_level"`

	Local  LocalConfig  `json:"local"`
	Webcam WebcamConfig `json:"webcam"`
	OpenCV OpenCVConfig `json:"opencv"`

	Detector   DetectorConfig   `json:"detector"`
	Attendance AttendanceConfig `json:"attendance"`
	Training   TrainingConfig   `json:"training"`
}

func (c *Config) GetFPS() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.TargetFPS
}

func (c *Config) SetFPS(fps uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TargetFPS = fps
}

func (c *Config) GetWidth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ScaledWidth
}

func (c *Config) SetWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScaledWidth = width
}

func (c *Config) GetHeight() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ScaledHeight
}

func (c *Config) SetHeight(height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScaledHeight = height
}

func (c *Config) GetSource() SourceType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ActiveSource
}

func (c *Config) SetSource(s SourceType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ActiveSource = s
}

func (c *Config) GetSessionConfidence() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Attendance.SessionConfidence
}

func (c *Config) SetSessionConfidence(v float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Attendance.SessionConfidence = v
}

func (c *Config) GetDetectorBackend() BackendType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Detector.Backend
}

func (c *Config) SetDetectorBackend(b BackendType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Detector.Backend = b
}

func (c *Config) GetWeightsPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Detector.WeightsPath
}

func (c *Config) SetWeightsPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Detector.WeightsPath = path
}

func (c *Config) GetDetectorURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Detector.URL
}

func (c *Config) SetDetectorURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Detector.URL = url
}

func (c *Config) GetLocalPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Local.Path
}

func (c *Config) SetLocalPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Local.Path = path
}

func (c *Config) GetWebcamDevice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Webcam.DeviceID
}

func (c *Config) SetWebcamDevice(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Webcam.DeviceID = id
}

func (c *Config) GetOpenCVDevice() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.OpenCV.DeviceIndex
}

func (c *Config) SetOpenCVDevice(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.OpenCV.DeviceIndex = index
}

// AttendanceFile is the path of the CSV attendance table.
func (c *Config) AttendanceFile() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filepath.Join(c.Attendance.Folder, c.Attendance.File)
}

func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return nil
}

func (c *Config) SaveByDefault() error {
	return c.Save(DefaultConfigPath)
}

// LoadConfigFile reads path over the defaults. A missing file is not an error.
// Environment overrides are applied last.
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("open config %s: %w", path, err)
	default:
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	envString("ATTENDANCE_LOG_LEVEL", &c.LogLevel)
	envString("ATTENDANCE_FOLDER", &c.Attendance.Folder)
	envString("ATTENDANCE_ROSTER", &c.Attendance.RosterPath)
	envString("ATTENDANCE_WEIGHTS", &c.Detector.WeightsPath)
	envString("ATTENDANCE_DATASET", &c.Detector.DatasetPath)
	envString("ATTENDANCE_DETECTOR_URL", &c.Detector.URL)

	if v := os.Getenv("ATTENDANCE_DETECTOR_BACKEND"); v != "" {
		c.Detector.Backend = BackendType(v)
	}

	c.Attendance.SessionSeconds = envInt("ATTENDANCE_SESSION_SECONDS", c.Attendance.SessionSeconds)
	c.Training.Epochs = envInt("ATTENDANCE_EPOCHS", c.Training.Epochs)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// envInt keeps defaultVal unless the variable holds a positive integer.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func NewDefaultConfig() *Config {
	return &Config{
		ActiveSource: SourceWebcam,
		TargetFPS:    24,
		ScaledWidth:  640,
		ScaledHeight: 640,
		LogLevel:     "info",
		Local:        LocalConfig{Path: ""},
		Webcam:       WebcamConfig{DeviceID: "/dev/video0"},
		OpenCV:       OpenCVConfig{DeviceIndex: 0},
		Detector: DetectorConfig{
			Backend:      BackendONNX,
			URL:          DefaultDetectorURL,
			WeightsPath:  filepath.Join("weights", "best.onnx"),
			DatasetPath:  "config.yaml",
			InputSize:    640,
			IoUThreshold: 0.45,
		},
		Attendance: AttendanceConfig{
			Folder:         "Attendance",
			File:           "attendance.csv",
			DailyFolder:    "Attendance",
			RosterPath:     "roster.yaml",
			DefaultSection: "A",
			SessionSeconds: 3,
			MinConfidence:  0.7,
			Cooldown:       30,
			FrameSkip:      2,
		},
		Training: TrainingConfig{
			Model:   "yolov8m.yaml",
			Data:    "config.yaml",
			Epochs:  20,
			Device:  "auto",
			Project: "runs",
			Name:    "attendance",
			Export:  true,
		},
	}
}
