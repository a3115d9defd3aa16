// Package pipeline orchestrates one track's journey from raw log rows to a
// written scene: resolve, normalize, detect, repair, assemble, write, and
// optionally publish.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flight-telemetry-kml/internal/config"
	"github.com/couchcryptid/flight-telemetry-kml/internal/domain"
	"github.com/couchcryptid/flight-telemetry-kml/internal/observability"
	"github.com/couchcryptid/flight-telemetry-kml/internal/sanitize"
	"github.com/couchcryptid/flight-telemetry-kml/internal/scene"
)

// RowSource reads raw telemetry rows from log files.
type RowSource interface {
	ReadRows(paths []string) ([]domain.RawRow, error)
}

// SceneWriter serializes an assembled scene to a file.
type SceneWriter interface {
	WriteScene(path string, sc scene.Scene) error
}

// PointPublisher forwards sanitized fixes to an external sink.
type PointPublisher interface {
	PublishTrack(ctx context.Context, track string, points []domain.Record) error
}

// Report summarizes one sanitized track.
type Report struct {
	Track        string
	RowsRead     int
	RowsSkipped  int
	Invalid      map[string]int // rejected fixes by gate
	Interpolated int
	GroundElev   float64
	SanitizedAt  time.Time
}

// Pipeline turns telemetry logs into sanitized KML scenes.
type Pipeline struct {
	source    RowSource
	writer    SceneWriter
	publisher PointPublisher // nil disables publishing
	table     domain.FieldTable
	displayed []string
	limits    sanitize.Limits
	ground    *float64
	style     scene.Style
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline with the given adapters and observability.
// pub may be nil when no sink is configured.
func New(source RowSource, writer SceneWriter, pub PointPublisher, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:    source,
		writer:    writer,
		publisher: pub,
		table:     domain.FieldTable(cfg.FieldMappings),
		displayed: cfg.DisplayedFields,
		limits:    limitsFromConfig(cfg),
		ground:    cfg.GroundElevation,
		style:     styleFromConfig(cfg),
		logger:    logger,
		metrics:   metrics,
	}
}

// Process sanitizes one track end to end. inputs are the log files forming
// one flight; the assembled scene is written to outPath. Rows that cannot be
// placed on the timeline are skipped with a warning. A track nothing can be
// salvaged from returns an error wrapping sanitize.ErrIrrecoverableTrack and
// produces no output.
func (p *Pipeline) Process(ctx context.Context, track string, inputs []string, outPath string) (Report, error) {
	start := time.Now()
	report := Report{Track: track, Invalid: make(map[string]int)}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	rows, err := p.source.ReadRows(inputs)
	if err != nil {
		p.metrics.TracksFailed.Inc()
		return report, fmt.Errorf("read rows: %w", err)
	}
	report.RowsRead = len(rows)
	p.metrics.RowsRead.Add(float64(len(rows)))

	records := p.normalizeRows(rows, &report)
	if len(records) == 0 {
		p.metrics.TracksFailed.Inc()
		return report, fmt.Errorf("track %s: no usable rows out of %d: %w",
			track, len(rows), sanitize.ErrIrrecoverableTrack)
	}

	verdicts, err := sanitize.DetectOutliers(records, p.limits)
	if err != nil {
		p.metrics.TracksFailed.Inc()
		return report, fmt.Errorf("track %s: %w", track, err)
	}
	for _, v := range verdicts {
		if !v.Valid {
			report.Invalid[v.Gate]++
			p.metrics.InvalidFixes.WithLabelValues(v.Gate).Inc()
		}
	}

	if err := sanitize.Interpolate(records, verdicts, p.limits); err != nil {
		p.metrics.TracksFailed.Inc()
		return report, fmt.Errorf("track %s: %w", track, err)
	}
	for i := range records {
		if records[i].Interpolated {
			report.Interpolated++
		}
	}
	p.metrics.PointsInterpolated.Add(float64(report.Interpolated))

	report.GroundElev = sanitize.ApplyGroundReference(records, p.ground)

	sc, err := scene.Assemble(records, track, p.displayed, p.style)
	if err != nil {
		p.metrics.TracksFailed.Inc()
		return report, fmt.Errorf("assemble scene: %w", err)
	}

	if err := p.writer.WriteScene(outPath, sc); err != nil {
		p.metrics.TracksFailed.Inc()
		return report, err
	}

	if p.publisher != nil {
		if err := p.publisher.PublishTrack(ctx, track, records); err != nil {
			p.metrics.TracksFailed.Inc()
			return report, err
		}
		p.metrics.PointsPublished.Add(float64(len(records)))
	}

	report.SanitizedAt = domain.Now()
	p.metrics.TracksSanitized.Inc()
	p.metrics.SanitizeDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("track sanitized",
		"track", track,
		"rows", report.RowsRead,
		"skipped", report.RowsSkipped,
		"invalid", sumCounts(report.Invalid),
		"interpolated", report.Interpolated,
		"ground_elevation", report.GroundElev,
		"output", outPath,
	)

	return report, nil
}

// normalizeRows resolves and normalizes raw rows into ordered records. Rows
// with a missing, unparsable, or backwards timestamp are skipped, so record
// indexes stay dense and timestamps never decrease downstream.
func (p *Pipeline) normalizeRows(rows []domain.RawRow, report *Report) []domain.Record {
	records := make([]domain.Record, 0, len(rows))
	var last time.Time

	for i, row := range rows {
		canonical := domain.Resolve(row, p.table, p.displayed)
		rec, err := domain.NormalizeRecord(len(records)+1, canonical, p.displayed)
		if err != nil {
			p.logger.Warn("skipping row", "row", i+1, "error", err)
			p.metrics.RowsSkipped.Inc()
			report.RowsSkipped++
			continue
		}
		if len(records) > 0 && rec.Timestamp.Before(last) {
			p.logger.Warn("skipping row, timestamp goes backwards",
				"row", i+1, "timestamp", rec.Timestamp)
			p.metrics.RowsSkipped.Inc()
			report.RowsSkipped++
			continue
		}
		last = rec.Timestamp
		records = append(records, rec)
	}
	return records
}

func limitsFromConfig(cfg *config.Config) sanitize.Limits {
	return sanitize.Limits{
		Deviation:      [3]float64{cfg.XYZLimit[0], cfg.XYZLimit[1], cfg.XYZLimit[2]},
		Rate:           [3]float64{cfg.XYZDeltaLimit[0], cfg.XYZDeltaLimit[1], cfg.XYZDeltaLimit[2]},
		Rounding:       [3]int{cfg.XYZRounding[0], cfg.XYZRounding[1], cfg.XYZRounding[2]},
		MinSats:        cfg.ValidSatRange[0],
		MaxSats:        cfg.ValidSatRange[1],
		DropDuplicates: cfg.DropDuplicateFixes,
	}
}

func styleFromConfig(cfg *config.Config) scene.Style {
	return scene.Style{
		LineColor:       cfg.LineStyle.Color,
		LineWidth:       cfg.LineStyle.Width,
		IconHref:        cfg.PointStyle.IconHref,
		IconScale:       cfg.PointStyle.IconScale,
		IconColor:       cfg.PointStyle.IconColor,
		InterpIconColor: cfg.PointStyle.InterpIconColor,
		LabelColor:      cfg.PointStyle.LabelColor,
		LabelScale:      cfg.PointStyle.LabelScale,
		LabelPoints:     cfg.PointStyle.LabelPoints,
	}
}

func sumCounts(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
