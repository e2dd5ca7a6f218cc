package training

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	output string
	err    error
}

func (f *fakeRunner) run(_ context.Context, out io.Writer, name string, args ...string) error {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.output != "" {
		fmt.Fprint(out, f.output)
	}
	return f.err
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("train: images/train\nval: images/val\nnames: [a, b]\n"), 0644))
	return path
}

func TestResolveDevice(t *testing.T) {
	tr := &Trainer{HasGPU: func(context.Context) bool { return true }}
	assert.Equal(t, DeviceCUDA, tr.ResolveDevice(context.Background(), DeviceAuto))
	assert.Equal(t, DeviceCUDA, tr.ResolveDevice(context.Background(), ""))
	assert.Equal(t, "cpu", tr.ResolveDevice(context.Background(), "cpu"))

	tr.HasGPU = func(context.Context) bool { return false }
	assert.Equal(t, DeviceCPU, tr.ResolveDevice(context.Background(), DeviceAuto))
}

func TestTrainArgs(t *testing.T) {
	args := TrainArgs(Options{Model: "yolov8m.yaml", Data: "config.yaml", Epochs: 20, Project: "runs", Name: "attendance"}, "0")
	assert.Equal(t, []string{
		"detect", "train",
		"data=config.yaml",
		"model=yolov8m.yaml",
		"epochs=20",
		"device=0",
		"project=runs",
		"name=attendance", "exist_ok=True",
	}, args)
}

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		line    string
		current int
		total   int
		ok      bool
	}{
		{"      1/20      4.51G      1.234      2.345", 1, 20, true},
		{"     20/20         0G     0.9", 20, 20, true},
		{"                 Class     Images  Instances", 0, 0, false},
		{"   21/20 x", 0, 0, false},
		{"Ultralytics 8.0.0 Python-3.10", 0, 0, false},
	}

	for _, tt := range tests {
		current, total, ok := ParseEpoch(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.current, current, tt.line)
		assert.Equal(t, tt.total, total, tt.line)
	}
}

func TestTrain_RunsTrainAndExport(t *testing.T) {
	data := writeDataset(t)
	runner := &fakeRunner{output: "  1/2  0G 1.0\r  2/2  0G 0.5\nall done\n"}
	var progress bytes.Buffer

	tr := &Trainer{
		Binary:   "yolo",
		Run:      runner.run,
		HasGPU:   func(context.Context) bool { return false },
		Progress: &progress,
	}

	weights, err := tr.Train(context.Background(), Options{
		Model: "yolov8m.yaml", Data: data, Epochs: 2, Device: DeviceAuto,
		Project: "runs", Name: "attendance", Export: true,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("runs", "attendance", "weights", "best.onnx"), weights)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, "yolo", runner.calls[0].name)
	assert.Contains(t, runner.calls[0].args, "device=cpu")
	assert.Equal(t, ExportArgs(filepath.Join("runs", "attendance", "weights", "best.pt")), runner.calls[1].args)
	assert.NotEmpty(t, progress.String())
}

func TestTrain_NoExport(t *testing.T) {
	runner := &fakeRunner{}
	tr := &Trainer{Binary: "yolo", Run: runner.run}

	weights, err := tr.Train(context.Background(), Options{Data: writeDataset(t), Epochs: 1, Device: "cpu", Project: "p", Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("p", "n", "weights", "best.pt"), weights)
	assert.Len(t, runner.calls, 1)
}

func TestTrain_Failures(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	tr := &Trainer{Binary: "yolo", Run: runner.run}

	_, err := tr.Train(context.Background(), Options{Data: writeDataset(t), Epochs: 1, Device: "cpu"})
	assert.ErrorContains(t, err, "training failed")

	_, err = tr.Train(context.Background(), Options{Data: writeDataset(t), Epochs: 0})
	assert.Error(t, err)

	_, err = tr.Train(context.Background(), Options{Data: "missing.yaml", Epochs: 1})
	assert.Error(t, err)
}

func TestInstallWeights(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "runs", "attendance", "weights", "best.onnx")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte("onnx-bytes"), 0644))

	dst := filepath.Join(dir, "weights", "best.onnx")
	require.NoError(t, InstallWeights(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "onnx-bytes", string(data))

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, InstallWeights(dst, dst))
	assert.Error(t, InstallWeights(filepath.Join(dir, "missing.onnx"), dst))
}
