package training

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "0"
)

type Options struct {
	Model   string
	Data    string
	Epochs  int
	Device  string
	Project string
	Name    string
	Export  bool
}

// Runner executes an external command, streaming its combined output to out.
type Runner func(ctx context.Context, out io.Writer, name string, args ...string) error

func ExecRunner(ctx context.Context, out io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

// GPUProbe reports whether a CUDA device is usable.
type GPUProbe func(ctx context.Context) bool

func NvidiaSMIProbe(ctx context.Context) bool {
	return exec.CommandContext(ctx, "nvidia-smi", "-L").Run() == nil
}

// Trainer drives the ultralytics `yolo` command line.
type Trainer struct {
	Binary   string
	Run      Runner
	HasGPU   GPUProbe
	Progress io.Writer
}

func NewTrainer() *Trainer {
	return &Trainer{
		Binary: "yolo",
		Run:    ExecRunner,
		HasGPU: NvidiaSMIProbe,
	}
}

func (t *Trainer) ResolveDevice(ctx context.Context, device string) string {
	if device != "" && device != DeviceAuto {
		return device
	}
	if t.HasGPU != nil && t.HasGPU(ctx) {
		return DeviceCUDA
	}
	return DeviceCPU
}

func TrainArgs(opts Options, device string) []string {
	args := []string{
		"detect", "train",
		"data=" + opts.Data,
		"model=" + opts.Model,
		"epochs=" + strconv.Itoa(opts.Epochs),
		"device=" + device,
	}
	if opts.Project != "" {
		args = append(args, "project="+opts.Project)
	}
	if opts.Name != "" {
		args = append(args, "name="+opts.Name, "exist_ok=True")
	}
	return args
}

// BestWeights is where the trainer leaves the best checkpoint.
func BestWeights(opts Options) string {
	return filepath.Join(opts.Project, opts.Name, "weights", "best.pt")
}

func ExportArgs(weights string) []string {
	return []string{"export", "model=" + weights, "format=onnx"}
}

var epochLine = regexp.MustCompile(`^\s*(\d+)/(\d+)\s`)

// ParseEpoch extracts "current/total" from a training progress line.
func ParseEpoch(line string) (current, total int, ok bool) {
	m := epochLine.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	current, _ = strconv.Atoi(m[1])
	total, _ = strconv.Atoi(m[2])
	if total == 0 || current > total {
		return 0, 0, false
	}
	return current, total, true
}

// Train validates the dataset, runs training and optionally exports the best
// weights to ONNX. It returns the path of the produced weights.
func (t *Trainer) Train(ctx context.Context, opts Options) (string, error) {
	ds, err := LoadDataset(opts.Data)
	if err != nil {
		return "", err
	}
	if opts.Epochs <= 0 {
		return "", fmt.Errorf("epochs must be positive, got %d", opts.Epochs)
	}

	device := t.ResolveDevice(ctx, opts.Device)
	logger := log.WithFields(log.Fields{
		"model":   opts.Model,
		"data":    opts.Data,
		"classes": len(ds.Names),
		"epochs":  opts.Epochs,
		"device":  device,
	})
	logger.Info("starting training")

	if err := t.runWithProgress(ctx, opts.Epochs, TrainArgs(opts, device)); err != nil {
		return "", fmt.Errorf("training failed: %w", err)
	}

	weights := BestWeights(opts)
	logger.WithField("weights", weights).Info("training finished")

	if !opts.Export {
		return weights, nil
	}

	exportOut := newLineLogger(nil)
	err = t.Run(ctx, exportOut, t.Binary, ExportArgs(weights)...)
	exportOut.Close()
	if err != nil {
		return "", fmt.Errorf("onnx export failed: %w", err)
	}

	onnx := weights[:len(weights)-len(filepath.Ext(weights))] + ".onnx"
	logger.WithField("weights", onnx).Info("exported onnx model")

	return onnx, nil
}

// InstallWeights copies exported weights to dst, where the detector loads
// them from. The copy is written next to dst and renamed into place.
func InstallWeights(src, dst string) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open weights: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create weights folder: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".weights-*")
	if err != nil {
		return fmt.Errorf("create weights: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy weights: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("copy weights: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("install weights: %w", err)
	}

	log.WithFields(log.Fields{"from": src, "to": dst}).Info("installed weights")
	return nil
}

func (t *Trainer) runWithProgress(ctx context.Context, epochs int, args []string) error {
	var bar *progressbar.ProgressBar
	if t.Progress != nil {
		bar = progressbar.NewOptions(epochs,
			progressbar.OptionSetWriter(t.Progress),
			progressbar.OptionSetDescription("training"),
			progressbar.OptionShowCount(),
		)
	}

	last := 0
	out := newLineLogger(func(line string) {
		current, _, ok := ParseEpoch(line)
		if !ok || current <= last {
			return
		}
		if bar != nil {
			_ = bar.Add(current - last)
		}
		last = current
	})

	err := t.Run(ctx, out, t.Binary, args...)
	out.Close()

	if bar != nil && err == nil {
		_ = bar.Finish()
	}
	return err
}

// lineLogger is an io.Writer that logs every complete line at debug level
// and hands it to onLine.
type lineLogger struct {
	pw   *io.PipeWriter
	done sync.WaitGroup
}

func newLineLogger(onLine func(string)) *lineLogger {
	pr, pw := io.Pipe()
	l := &lineLogger{pw: pw}

	l.done.Add(1)
	go func() {
		defer l.done.Done()
		sc := bufio.NewScanner(pr)
		sc.Split(scanLinesOrCR)
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				continue
			}
			log.Debug(line)
			if onLine != nil {
				onLine(line)
			}
		}
		// Drain so the writer never blocks on a scanner error.
		_, _ = io.Copy(io.Discard, pr)
	}()

	return l
}

func (l *lineLogger) Write(p []byte) (int, error) { return l.pw.Write(p) }

func (l *lineLogger) Close() error {
	err := l.pw.Close()
	l.done.Wait()
	return err
}

// scanLinesOrCR splits on \n and on the bare \r that progress bars redraw with.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
