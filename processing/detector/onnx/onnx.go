// Package onnx runs YOLOv8 models exported to ONNX through the OpenCV DNN
// module.
package onnx

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"sync/atomic"

	"attendance/internal/models"
	processing "attendance/processing/detector"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var ErrModelNotFound = errors.New("model file not found")

type Options struct {
	WeightsPath    string
	Names          []string
	InputSize      int
	ScoreThreshold float32
	IoUThreshold   float32
}

// Detector owns a loaded network. Detect is not safe for concurrent use;
// the async side runs it from a single goroutine, so use one or the other.
type Detector struct {
	opts Options
	net  gocv.Net

	InputFrames  chan image.Image
	OutputResult chan []models.DetectionResult

	started  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// CheckWeights fails with ErrModelNotFound when path is not a readable file.
func CheckWeights(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	return nil
}

func New(opts Options) (*Detector, error) {
	if err := CheckWeights(opts.WeightsPath); err != nil {
		return nil, err
	}
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = processing.DefaultScoreThreshold
	}
	if opts.IoUThreshold <= 0 {
		opts.IoUThreshold = 0.45
	}

	net := gocv.ReadNetFromONNX(opts.WeightsPath)
	if net.Empty() {
		return nil, fmt.Errorf("error loading model %s", opts.WeightsPath)
	}

	log.WithFields(log.Fields{"weights": opts.WeightsPath, "classes": len(opts.Names)}).Info("onnx model loaded")

	return &Detector{
		opts:         opts,
		net:          net,
		InputFrames:  make(chan image.Image, 1),
		OutputResult: make(chan []models.DetectionResult, 5),
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}, nil
}

func (d *Detector) Names() []string { return d.opts.Names }

// Detect runs one BGR frame through the network.
func (d *Detector) Detect(frame gocv.Mat) ([]models.DetectionResult, error) {
	size := d.opts.InputSize
	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	return processing.DecodeYOLOv8(data, dims[1]-4, dims[2], processing.YOLOOptions{
		InputSize:      size,
		ScoreThreshold: d.opts.ScoreThreshold,
		IoUThreshold:   d.opts.IoUThreshold,
		Names:          d.opts.Names,
	})
}

// DetectImage converts img to a Mat and runs Detect.
func (d *Detector) DetectImage(img image.Image) ([]models.DetectionResult, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	return d.Detect(mat)
}

func (d *Detector) Input() chan<- image.Image               { return d.InputFrames }
func (d *Detector) Output() <-chan []models.DetectionResult { return d.OutputResult }

func (d *Detector) Start() {
	d.started.Store(true)
	go d.runLoop()
}

func (d *Detector) runLoop() {
	defer close(d.done)

	for {
		select {
		case <-d.stopChan:
			return
		case img := <-d.InputFrames:
			results, err := d.DetectImage(img)
			if err != nil {
				log.WithError(err).Warn("inference failed")
				continue
			}

			select {
			case d.OutputResult <- results:
			default:
			}
		}
	}
}

// Stop ends the async loop and releases the network.
func (d *Detector) Stop() {
	_ = d.Close()
}

func (d *Detector) Close() error {
	var err error
	d.stopOnce.Do(func() {
		close(d.stopChan)
		if d.started.Load() {
			<-d.done
		}
		err = d.net.Close()
	})
	return err
}
