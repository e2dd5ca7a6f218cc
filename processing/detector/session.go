package processing

import (
	"context"
	"image"
	"sync"
	"time"

	"attendance/internal/attendance"
	"attendance/internal/models"
	stream "attendance/processing/capture"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const DefaultSessionDuration = 3 * time.Second

// Recorder persists attendance entries.
type Recorder interface {
	Append(e models.Entry) (models.Record, error)
}

type SessionConfig struct {
	Duration      time.Duration
	Section       string
	Role          models.Role
	Status        models.Status
	MinConfidence float32
	FrameSkip     uint64
	Roster        attendance.Roster
	BufferSize    uint
}

// Session is one timed live attendance run: every label is written to the
// recorder the first time it is detected.
type Session struct {
	ID string

	cfg      SessionConfig
	streamer stream.VideoStreamer
	det      Detector
	recorder Recorder
	tracker  *attendance.Tracker
	proc     *Processor
	logger   *log.Entry

	mu    sync.Mutex
	marks []models.Mark
	errs  []error
}

func NewSession(streamer stream.VideoStreamer, det Detector, recorder Recorder, cfg SessionConfig) *Session {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultSessionDuration
	}
	if cfg.Role == "" {
		cfg.Role = models.RoleStudent
	}
	if cfg.Status == "" {
		cfg.Status = models.StatusPresent
	}

	id := uuid.NewString()
	s := &Session{
		ID:       id,
		cfg:      cfg,
		streamer: streamer,
		det:      det,
		recorder: recorder,
		tracker: attendance.NewTracker(attendance.TrackerOptions{
			Roster:        cfg.Roster,
			MinConfidence: cfg.MinConfidence,
		}),
		logger: log.WithField("session", id),
	}

	s.proc = NewProcessor(streamer, det, cfg.BufferSize)
	s.proc.FrameSkip = cfg.FrameSkip
	s.proc.OnResults = s.handleResults

	return s
}

// Frames carries annotated frames for display.
func (s *Session) Frames() <-chan image.Image { return s.proc.OutImageStream }

func (s *Session) Stats() Stats { return s.proc.Stats() }

func (s *Session) Start() error {
	if err := s.streamer.Start(); err != nil {
		return err
	}

	s.det.Start()
	s.proc.Start()

	s.logger.WithField("duration", s.cfg.Duration).Info("live attendance session started")

	return nil
}

// Wait blocks until the duration elapses, the stream ends or ctx is done,
// then tears the pipeline down and returns the marks that were recorded.
func (s *Session) Wait(ctx context.Context) ([]models.Mark, error) {
	timer := time.NewTimer(s.cfg.Duration)
	defer timer.Stop()

	var streamErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-s.proc.Done():
		select {
		case streamErr = <-s.proc.Err():
		default:
		}
	}

	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithField("marked", len(s.marks)).Info("live attendance session finished")

	if streamErr != nil {
		return s.marks, streamErr
	}
	if len(s.errs) > 0 {
		return s.marks, s.errs[0]
	}
	return s.marks, nil
}

func (s *Session) Stop() {
	s.proc.Stop()
	s.streamer.Stop()
	s.det.Stop()
}

func (s *Session) handleResults(frame uint64, results []models.DetectionResult) {
	for _, mark := range s.tracker.Observe(frame, results) {
		_, err := s.recorder.Append(models.Entry{
			RollNo:  mark.RollNo,
			Name:    mark.Label,
			Section: s.cfg.Section,
			Role:    s.cfg.Role,
			Status:  s.cfg.Status,
		})

		s.mu.Lock()
		if err != nil {
			s.errs = append(s.errs, err)
		} else {
			s.marks = append(s.marks, mark)
		}
		s.mu.Unlock()

		logger := s.logger.WithFields(log.Fields{"label": mark.Label, "roll": mark.RollNo})
		if err != nil {
			logger.WithError(err).Error("failed to record attendance")
			continue
		}
		logger.Info("attendance marked")
	}
}
