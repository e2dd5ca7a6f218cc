package cmd

import (
	"attendance/internal/attendance"
	"attendance/internal/ui"

	"github.com/spf13/cobra"
)

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the desktop attendance app",
	RunE:  runGUI,
}

func init() {
	rootCmd.AddCommand(guiCmd)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := attendance.Open(cfg.AttendanceFile())
	if err != nil {
		return err
	}

	ui.CreateApp(cfg, configPath, store).Run()

	return nil
}
