package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance/internal/attendance"
	"attendance/internal/web"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the attendance file over HTTP",
	Long: `Start a JSON API for listing, filtering, exporting, adding and clearing
attendance records.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8000, "Port to listen on")
	serveCmd.Flags().String("host", "127.0.0.1", "Host to bind to")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := attendance.Open(cfg.AttendanceFile())
	if err != nil {
		return err
	}

	host := mustGetString(cmd, "host")
	port := mustGetInt(cmd, "port")
	server := web.NewServer(store, host, port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("error during shutdown")
		}
	}()

	log.WithField("file", store.Path()).Info("serving attendance")
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s:%d\nPress Ctrl+C to stop\n", host, port)

	return server.Start()
}
