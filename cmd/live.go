package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance/internal/attendance"
	"attendance/internal/models"
	"attendance/processing/backend"
	"attendance/processing/capture"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Mark attendance continuously from a camera",
	Long: `Live reads frames from an OpenCV camera, runs the local ONNX detector on
every n-th frame and appends each recognized person to the day log
<folder>/<YYYY-MM-DD>.txt. Press q in the preview window or Ctrl+C to stop.`,
	RunE: runLive,
}

func init() {
	rootCmd.AddCommand(liveCmd)

	liveCmd.Flags().BoolP("gui", "g", false, "Show a preview window with detections")
	liveCmd.Flags().Int("device", -1, "Camera index (default from config)")
	liveCmd.Flags().Float32("confidence", 0, "Minimum detection confidence (default from config)")
	liveCmd.Flags().Bool("csv", false, "Also append marks to the attendance CSV")
}

var (
	liveBoxColor  = color.RGBA{0, 255, 0, 0}
	liveTextColor = color.RGBA{255, 255, 255, 0}
)

type liveOptions struct {
	showGUI       bool
	frameSkip     uint64
	minConfidence float32
	section       string
	roster        attendance.Roster
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := liveOptions{
		showGUI:       mustGetBool(cmd, "gui"),
		frameSkip:     cfg.Attendance.FrameSkip,
		minConfidence: cfg.Attendance.MinConfidence,
		section:       cfg.Attendance.DefaultSection,
	}
	if cmd.Flags().Changed("confidence") {
		opts.minConfidence = mustGetFloat32(cmd, "confidence")
	}
	device := mustGetInt(cmd, "device")
	if device < 0 {
		device = cfg.OpenCV.DeviceIndex
	}

	det, err := backend.NewONNX(cfg)
	if err != nil {
		return err
	}
	defer det.Close()

	roster, err := attendance.LoadRoster(cfg.Attendance.RosterPath)
	if err != nil {
		return err
	}

	dayLog, err := attendance.OpenDayLog(cfg.Attendance.DailyFolder, time.Now())
	if err != nil {
		return err
	}

	var store *attendance.Store
	if mustGetBool(cmd, "csv") {
		if store, err = attendance.Open(cfg.AttendanceFile()); err != nil {
			return err
		}
	}

	vc, err := capture.OpenCamera(device)
	if err != nil {
		return err
	}
	defer vc.Close()

	opts.roster = roster

	tracker := attendance.NewTracker(attendance.TrackerOptions{
		Roster:        roster,
		MinConfidence: opts.minConfidence,
		Cooldown:      cfg.Attendance.Cooldown,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"device":  device,
		"day_log": dayLog.Path(),
		"classes": len(det.Names()),
	}).Info("live attendance started")

	return liveLoop(ctx, vc, opts, func(frame uint64, mat gocv.Mat) ([]models.DetectionResult, error) {
		dets, err := det.Detect(mat)
		if err != nil {
			return nil, err
		}

		for _, m := range tracker.Observe(frame, dets) {
			logger := log.WithFields(log.Fields{"label": m.Label, "roll": m.RollNo, "frame": frame})

			added, err := dayLog.Record(m.RollNo, m.Label)
			if err != nil {
				logger.WithError(err).Error("failed to write day log")
				continue
			}
			if !added || store == nil {
				continue
			}

			_, err = store.Append(models.Entry{
				RollNo:  m.RollNo,
				Name:    m.Label,
				Section: opts.section,
				Role:    models.RoleStudent,
				Status:  models.StatusPresent,
			})
			if err != nil {
				logger.WithError(err).Error("failed to record attendance")
			}
		}

		return dets, nil
	})
}

type detectFunc func(frame uint64, mat gocv.Mat) ([]models.DetectionResult, error)

func liveLoop(ctx context.Context, vc *gocv.VideoCapture, opts liveOptions, detect detectFunc) error {
	var window *gocv.Window
	if opts.showGUI {
		window = gocv.NewWindow("Attendance")
		defer window.Close()
	}

	mat := gocv.NewMat()
	defer mat.Close()

	var (
		frame uint64
		last  []models.DetectionResult
	)

	for {
		select {
		case <-ctx.Done():
			log.WithField("frames", frame).Info("live attendance stopped")
			return nil
		default:
		}

		if ok := vc.Read(&mat); !ok || mat.Empty() {
			return errors.New("failed to grab frame")
		}
		frame++

		if shouldProcess(frame, opts.frameSkip) {
			dets, err := detect(frame, mat)
			if err != nil {
				log.WithError(err).Warn("detection failed")
			} else {
				last = dets
			}
		}

		if window == nil {
			continue
		}

		drawLive(&mat, last, opts.minConfidence, opts.roster)
		window.IMShow(mat)
		if key := window.WaitKey(1); key&0xFF == 'q' {
			log.WithField("frames", frame).Info("live attendance stopped")
			return nil
		}
	}
}

// shouldProcess selects every skip-th frame; 0 or 1 selects all of them.
func shouldProcess(frame, skip uint64) bool {
	return skip <= 1 || frame%skip == 0
}

func drawLive(mat *gocv.Mat, dets []models.DetectionResult, minConfidence float32, roster attendance.Roster) {
	w := float32(mat.Cols())
	h := float32(mat.Rows())

	for _, d := range dets {
		if !d.Valid() || (minConfidence > 0 && d.Confidence <= minConfidence) {
			continue
		}

		rect := image.Rect(int(d.Box[1]*w), int(d.Box[0]*h), int(d.Box[3]*w), int(d.Box[2]*h))
		gocv.Rectangle(mat, rect, liveBoxColor, 2)

		roll, _ := roster.RollNo(d.Label, d.ClassID)
		org := image.Pt(rect.Min.X, max(rect.Min.Y-8, 12))
		gocv.PutText(mat, liveLabel(d, roll), org, gocv.FontHersheySimplex, 0.5, liveTextColor, 1)
	}
}

func liveLabel(d models.DetectionResult, roll string) string {
	if roll == "" {
		return fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
	}
	return fmt.Sprintf("%s (%s) %.2f", d.Label, roll, d.Confidence)
}
