// Package backend builds the configured detector.
package backend

import (
	"fmt"

	"attendance/internal/config"
	processing "attendance/processing/detector"
	"attendance/processing/detector/onnx"
	"attendance/processing/training"
)

// NewDetector returns the remote or local detector selected by cfg. The
// local one fails with onnx.ErrModelNotFound when the weights are missing.
func NewDetector(cfg *config.Config) (processing.Detector, error) {
	switch backend := cfg.GetDetectorBackend(); backend {
	case config.BackendRemote:
		return processing.NewRemoteDetector(cfg.GetDetectorURL()), nil
	case config.BackendONNX, "":
		return NewONNX(cfg)
	default:
		return nil, fmt.Errorf("unknown detector backend: %s", backend)
	}
}

// NewONNX loads the local model with class names from the dataset config.
func NewONNX(cfg *config.Config) (*onnx.Detector, error) {
	weights := cfg.GetWeightsPath()
	if err := onnx.CheckWeights(weights); err != nil {
		return nil, err
	}

	var names []string
	if cfg.Detector.DatasetPath != "" {
		ds, err := training.LoadDataset(cfg.Detector.DatasetPath)
		if err != nil {
			return nil, fmt.Errorf("load class names: %w", err)
		}
		names = ds.Names
	}

	return onnx.New(onnx.Options{
		WeightsPath:  weights,
		Names:        names,
		InputSize:    cfg.Detector.InputSize,
		IoUThreshold: cfg.Detector.IoUThreshold,
	})
}
