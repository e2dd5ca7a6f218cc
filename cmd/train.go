package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"attendance/processing/training"

	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the YOLOv8 detector on a labelled dataset",
	Long: `Train runs the ultralytics "yolo" CLI on the dataset YAML and, unless
--export=false, exports the best weights to ONNX for the local detector.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().String("model", "", "Model config or weights to start from (default from config)")
	trainCmd.Flags().String("data", "", "Dataset YAML (default from config)")
	trainCmd.Flags().Int("epochs", 0, "Number of epochs (default from config)")
	trainCmd.Flags().String("device", "", "Device: auto, cpu or a CUDA index (default from config)")
	trainCmd.Flags().Bool("export", true, "Export the best weights to ONNX")
	trainCmd.Flags().Bool("install", true, "Copy the exported ONNX weights to the detector weights path")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := training.Options{
		Model:   cfg.Training.Model,
		Data:    cfg.Training.Data,
		Epochs:  cfg.Training.Epochs,
		Device:  cfg.Training.Device,
		Project: cfg.Training.Project,
		Name:    cfg.Training.Name,
		Export:  cfg.Training.Export,
	}
	if v := mustGetString(cmd, "model"); v != "" {
		opts.Model = v
	}
	if v := mustGetString(cmd, "data"); v != "" {
		opts.Data = v
	}
	if v := mustGetInt(cmd, "epochs"); v > 0 {
		opts.Epochs = v
	}
	if v := mustGetString(cmd, "device"); v != "" {
		opts.Device = v
	}
	if cmd.Flags().Changed("export") {
		opts.Export = mustGetBool(cmd, "export")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trainer := training.NewTrainer()
	trainer.Progress = os.Stderr

	weights, err := trainer.Train(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Weights written to %s\n", weights)

	target := cfg.GetWeightsPath()
	if !opts.Export || target == "" {
		return nil
	}
	if !mustGetBool(cmd, "install") {
		fmt.Fprintf(cmd.OutOrStdout(), "Copy them to %s to use them for detection\n", target)
		return nil
	}
	if err := training.InstallWeights(weights, target); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Detector weights updated: %s\n", target)
	return nil
}
