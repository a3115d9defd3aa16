package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-telemetry-kml/internal/config"
	"github.com/couchcryptid/flight-telemetry-kml/internal/observability"
	"github.com/couchcryptid/flight-telemetry-kml/internal/pipeline"
)

type stubProcessor struct {
	report  pipeline.Report
	err     error
	tracks  []string
	inputs  [][]string
	outputs []string
}

func (s *stubProcessor) Process(_ context.Context, track string, inputs []string, outPath string) (pipeline.Report, error) {
	s.tracks = append(s.tracks, track)
	s.inputs = append(s.inputs, inputs)
	s.outputs = append(s.outputs, outPath)
	if s.err != nil {
		return pipeline.Report{}, s.err
	}
	return s.report, nil
}

func testWatchConfig(inputDir, outputDir string) config.WatchConfig {
	return config.WatchConfig{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		Interval:        config.Duration(10 * time.Millisecond),
		HTTPAddr:        ":0",
		ShutdownTimeout: config.Duration(time.Second),
	}
}

func writeLog(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("Date,Time\n"), 0o644))
}

func TestScanConvertsNewLogs(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeLog(t, inputDir, "flight-1.csv")
	writeLog(t, inputDir, "flight-2.CSV")
	writeLog(t, inputDir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(inputDir, "archive"), 0o755))

	wall := time.Date(2024, time.June, 8, 10, 0, 0, 0, time.UTC)
	proc := &stubProcessor{report: pipeline.Report{RowsRead: 10, RowsSkipped: 1, Interpolated: 2}}
	w := New(testWatchConfig(inputDir, outputDir), proc, clockwork.NewFakeClockAt(wall),
		slog.Default(), observability.NewMetricsForTesting())

	w.scan(context.Background())

	require.Equal(t, []string{"flight-1", "flight-2"}, proc.tracks)
	assert.Equal(t, [][]string{
		{filepath.Join(inputDir, "flight-1.csv")},
		{filepath.Join(inputDir, "flight-2.CSV")},
	}, proc.inputs)
	assert.Equal(t, []string{
		filepath.Join(outputDir, "flight-1.kml"),
		filepath.Join(outputDir, "flight-2.kml"),
	}, proc.outputs)

	require.Len(t, w.recent, 2)
	expected := Outcome{
		Track:        "flight-1",
		Output:       filepath.Join(outputDir, "flight-1.kml"),
		Points:       9,
		Interpolated: 2,
		FinishedAt:   wall,
	}
	if diff := cmp.Diff(expected, w.recent[0]); diff != "" {
		t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSkipsConvertedLogs(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeLog(t, inputDir, "flight-1.csv")
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "flight-1.kml"), []byte("<kml/>"), 0o644))

	proc := &stubProcessor{}
	w := New(testWatchConfig(inputDir, outputDir), proc, nil,
		slog.Default(), observability.NewMetricsForTesting())

	w.scan(context.Background())

	assert.Empty(t, proc.tracks)
	assert.Empty(t, w.recent)
}

func TestScanRecordsFailures(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeLog(t, inputDir, "flight-1.csv")

	proc := &stubProcessor{err: errors.New("track is hopeless")}
	w := New(testWatchConfig(inputDir, outputDir), proc, nil,
		slog.Default(), observability.NewMetricsForTesting())

	// No output file appears for a failed track, so the next scan retries it.
	w.scan(context.Background())
	w.scan(context.Background())

	require.Len(t, proc.tracks, 2)
	require.Len(t, w.recent, 2)
	assert.Equal(t, "track is hopeless", w.recent[0].Error)
	assert.Empty(t, w.recent[0].Output)
}

func TestRunStopsOnCancel(t *testing.T) {
	proc := &stubProcessor{}
	w := New(testWatchConfig(t.TempDir(), t.TempDir()), proc, nil,
		slog.Default(), observability.NewMetricsForTesting())

	require.Error(t, w.CheckReadiness(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, w.CheckReadiness(context.Background()))
}

func TestRunRescansOnTick(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeLog(t, inputDir, "flight-1.csv")

	proc := &stubProcessor{err: errors.New("bad track")}
	w := New(testWatchConfig(inputDir, outputDir), proc, nil,
		slog.Default(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The immediate scan plus at least one tick, each retrying the bad track.
	assert.GreaterOrEqual(t, len(proc.tracks), 2)
}

func TestRecordCapsOutcomes(t *testing.T) {
	w := New(testWatchConfig(t.TempDir(), t.TempDir()), &stubProcessor{}, nil,
		slog.Default(), observability.NewMetricsForTesting())

	for i := 0; i < maxOutcomes+5; i++ {
		w.record(Outcome{Track: fmt.Sprintf("flight-%d", i)})
	}

	require.Len(t, w.recent, maxOutcomes)
	assert.Equal(t, "flight-5", w.recent[0].Track)
	assert.Equal(t, "flight-24", w.recent[maxOutcomes-1].Track)
}

func TestStatusReportsRecentOutcomes(t *testing.T) {
	w := New(testWatchConfig(t.TempDir(), t.TempDir()), &stubProcessor{}, nil,
		slog.Default(), observability.NewMetricsForTesting())
	w.record(Outcome{Track: "flight-1", Output: "out/flight-1.kml", Points: 9})
	w.ready.Store(true)

	data, err := json.Marshal(w.Status(context.Background()))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"ready":true`)
	assert.Contains(t, string(data), `"track":"flight-1"`)
	assert.Contains(t, string(data), `"points":9`)
	assert.NotContains(t, string(data), `"error"`)
}
