package cmd

import (
	"fmt"
	"os"

	"attendance/internal/config"
	"attendance/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Automated attendance with YOLO object detection",
	Long: `Attendance marks people present from a webcam using a YOLOv8 detector,
keeps the records in a CSV file and trains the detector on a labelled dataset.
Without a subcommand it opens the desktop app.`,
	SilenceUsage: true,
	RunE:         runGUI,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to the JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig reads the config file and configures logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if err := logging.Setup(level, os.Stderr); err != nil {
		return nil, err
	}

	return cfg, nil
}
