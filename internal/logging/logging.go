package logging

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// Setup configures the process-wide logger.
func Setup(level string, out io.Writer) error {
	if level == "" {
		level = "info"
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log.SetLevel(lvl)
	log.SetOutput(out)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return nil
}
