package capture

import (
	"fmt"

	"attendance/internal/config"
)

func NewStreamer(cfg *config.Config) (VideoStreamer, error) {
	switch cfg.GetSource() {
	case config.SourceWebcam:
		return NewFFmpegWebcam(cfg.GetWebcamDevice(), cfg.GetFPS(), cfg.GetWidth(), cfg.GetHeight()), nil
	case config.SourceOpenCV:
		return NewOpenCVStreamer(cfg.GetOpenCVDevice(), cfg.GetFPS()), nil
	case config.SourceLocal:
		return NewLocalStreamer(cfg.GetLocalPath(), cfg.GetFPS(), cfg.GetWidth(), cfg.GetHeight())
	default:
		return nil, fmt.Errorf("unknown video source: %s", cfg.GetSource())
	}
}
