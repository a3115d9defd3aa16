// Package watch polls a directory for transmitter logs and converts each new
// one into a sanitized KML scene.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/flight-telemetry-kml/internal/config"
	"github.com/couchcryptid/flight-telemetry-kml/internal/observability"
	"github.com/couchcryptid/flight-telemetry-kml/internal/pipeline"
)

// maxOutcomes caps how many recent conversions the status endpoint reports.
const maxOutcomes = 20

// Processor sanitizes one track from its log files into a scene file.
type Processor interface {
	Process(ctx context.Context, track string, inputs []string, outPath string) (pipeline.Report, error)
}

// Outcome records one conversion attempt for the status endpoint.
type Outcome struct {
	Track        string    `json:"track"`
	Output       string    `json:"output,omitempty"`
	Error        string    `json:"error,omitempty"`
	Points       int       `json:"points"`
	Interpolated int       `json:"interpolated"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Watcher scans an input directory on an interval and converts any log that
// does not yet have a matching scene in the output directory. A failed track
// is logged and retried on the next scan.
type Watcher struct {
	inputDir  string
	outputDir string
	interval  time.Duration
	processor Processor
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	ready atomic.Bool

	mu     sync.Mutex
	recent []Outcome
}

// New creates a Watcher for the configured directories. clk may be nil, in
// which case the real clock is used.
func New(cfg config.WatchConfig, proc Processor, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Watcher {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Watcher{
		inputDir:  cfg.InputDir,
		outputDir: cfg.OutputDir,
		interval:  time.Duration(cfg.Interval),
		processor: proc,
		clock:     clk,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run scans immediately, then on every tick until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	w.metrics.WatcherRunning.Set(1)
	defer w.metrics.WatcherRunning.Set(0)

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.scan(ctx)
		w.ready.Store(true)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}

// CheckReadiness reports whether the first scan has completed.
func (w *Watcher) CheckReadiness(_ context.Context) error {
	if !w.ready.Load() {
		return errors.New("first scan has not completed")
	}
	return nil
}

// Status reports readiness and the most recent conversion outcomes.
func (w *Watcher) Status(_ context.Context) any {
	w.mu.Lock()
	defer w.mu.Unlock()

	outcomes := make([]Outcome, len(w.recent))
	copy(outcomes, w.recent)
	return struct {
		Ready    bool      `json:"ready"`
		Outcomes []Outcome `json:"outcomes"`
	}{
		Ready:    w.ready.Load(),
		Outcomes: outcomes,
	}
}

func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.inputDir)
	if err != nil {
		w.logger.Error("reading input directory", "dir", w.inputDir, "error", err)
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}

		track := strings.TrimSuffix(name, filepath.Ext(name))
		outPath := filepath.Join(w.outputDir, track+".kml")
		if _, err := os.Stat(outPath); err == nil {
			continue // already converted
		}

		input := filepath.Join(w.inputDir, name)
		report, err := w.processor.Process(ctx, track, []string{input}, outPath)

		outcome := Outcome{
			Track:        track,
			Points:       report.RowsRead - report.RowsSkipped,
			Interpolated: report.Interpolated,
			FinishedAt:   w.clock.Now(),
		}
		if err != nil {
			outcome.Error = err.Error()
			w.logger.Error("converting track", "track", track, "error", err)
		} else {
			outcome.Output = outPath
			w.logger.Info("converted track", "track", track, "output", outPath)
		}
		w.record(outcome)
	}
}

func (w *Watcher) record(o Outcome) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.recent = append(w.recent, o)
	if len(w.recent) > maxOutcomes {
		w.recent = w.recent[len(w.recent)-maxOutcomes:]
	}
}
