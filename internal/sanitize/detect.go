// Package sanitize detects and repairs anomalous GPS fixes in a normalized
// telemetry track. Detection runs three gates in order (satellite count,
// deviation from the track median, rate of change against the last accepted
// fix) and repair replaces every rejected fix by linear interpolation
// between its surviving neighbors.
package sanitize

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/couchcryptid/flight-telemetry-kml/internal/domain"
)

// ErrIrrecoverableTrack marks a track with no valid fixes left to anchor
// repair on. Callers match it with errors.Is; no output is produced for
// such a track.
var ErrIrrecoverableTrack = errors.New("irrecoverable track")

// Gate labels used in verdicts and metrics.
const (
	GateSatellite = "satellite"
	GateDeviation = "deviation"
	GateRate      = "rate"
	GateDuplicate = "duplicate"
)

// Limits holds the detection and rounding thresholds. Per-axis values are in
// Coordinate axis order: longitude, latitude, elevation.
type Limits struct {
	// Deviation is the maximum absolute offset from the track median.
	// Deviation equal to the limit still passes.
	Deviation [3]float64

	// Rate is the maximum absolute change per second against the nearest
	// preceding accepted fix. Rate equal to the limit still passes.
	Rate [3]float64

	// Rounding is the number of output decimals per axis, applied once to
	// every fix after repair.
	Rounding [3]int

	// MinSats and MaxSats bound the accepted satellite count, inclusive.
	MinSats int
	MaxSats int

	// DropDuplicates rejects fixes whose position exactly repeats the last
	// accepted fix, so stationary noise collapses onto the repaired path.
	// Off by default.
	DropDuplicates bool
}

// Verdict is the detection outcome for one record.
type Verdict struct {
	Valid  bool
	Gate   string // which gate rejected the fix, empty when valid
	Reason string
}

// DetectOutliers classifies every record in the track and stamps its status.
// Interpolation needs the verdicts, so they are returned alongside the
// in-place status updates.
//
// The satellite gate runs first because the per-axis medians must be
// computed over trustworthy fixes only; a fix that is undefined or has a bad
// satellite count never contributes to any statistic. The rate gate anchors
// on the nearest PRECEDING fix that passed all gates, not the raw
// predecessor, so one glitch does not grant the next glitch a free pass.
func DetectOutliers(records []domain.Record, lim Limits) ([]Verdict, error) {
	verdicts := make([]Verdict, len(records))

	medians, err := satelliteGate(records, lim, verdicts)
	if err != nil {
		return nil, err
	}

	deviationGate(records, lim, medians, verdicts)
	rateGate(records, lim, verdicts)

	for i := range records {
		if verdicts[i].Valid {
			verdicts[i].Reason = domain.StatusValidFix
			records[i].SetStatus(domain.StatusValidFix)
		} else {
			records[i].SetStatus(verdicts[i].Reason)
		}
	}

	return verdicts, nil
}

// satelliteGate rejects undefined coordinates and out-of-range satellite
// counts, then returns the per-axis medians over the survivors.
func satelliteGate(records []domain.Record, lim Limits, verdicts []Verdict) ([3]float64, error) {
	var basis [3][]float64

	for i := range records {
		switch {
		case !records[i].CoordValid:
			verdicts[i] = Verdict{Gate: GateSatellite, Reason: "No GPS fix"}
		case records[i].Sats < lim.MinSats || records[i].Sats > lim.MaxSats:
			verdicts[i] = Verdict{Gate: GateSatellite, Reason: fmt.Sprintf("Bad satellite count: %d", records[i].Sats)}
		default:
			verdicts[i].Valid = true
			axes := records[i].Coord.Axes()
			for k := range axes {
				basis[k] = append(basis[k], axes[k])
			}
		}
	}

	if len(basis[0]) == 0 {
		return [3]float64{}, fmt.Errorf("satellite gate left no usable fixes in %d records: %w",
			len(records), ErrIrrecoverableTrack)
	}

	var medians [3]float64
	for k := range basis {
		medians[k] = median(basis[k])
	}
	return medians, nil
}

// deviationGate rejects fixes too far from the track median on any axis.
// A deviation exactly at the limit passes.
func deviationGate(records []domain.Record, lim Limits, medians [3]float64, verdicts []Verdict) {
	for i := range records {
		if !verdicts[i].Valid {
			continue
		}
		axes := records[i].Coord.Axes()
		for k := range axes {
			if dev := math.Abs(axes[k] - medians[k]); dev > lim.Deviation[k] {
				verdicts[i] = Verdict{
					Gate:   GateDeviation,
					Reason: fmt.Sprintf("Too far from median %s: %.6g", domain.AxisNames[k], dev),
				}
				break
			}
		}
	}
}

// rateGate rejects fixes that move implausibly fast relative to the nearest
// preceding accepted fix. The first accepted fix has nothing to compare
// against and is exempt. Two fixes sharing a timestamp divide by zero: IEEE
// semantics make any movement an infinite rate (rejected) while a
// stationary pair yields NaN, which no limit comparison rejects.
func rateGate(records []domain.Record, lim Limits, verdicts []Verdict) {
	anchor := -1
	for i := range records {
		if !verdicts[i].Valid {
			continue
		}
		if anchor == -1 {
			anchor = i
			continue
		}

		dt := records[i].Timestamp.Sub(records[anchor].Timestamp).Seconds()
		axes := records[i].Coord.Axes()
		anchorAxes := records[anchor].Coord.Axes()

		for k := range axes {
			if rate := math.Abs(axes[k]-anchorAxes[k]) / dt; rate > lim.Rate[k] {
				verdicts[i] = Verdict{
					Gate:   GateRate,
					Reason: fmt.Sprintf("Impossible %s speed: %.6g/s", domain.AxisNames[k], rate),
				}
				break
			}
		}
		if !verdicts[i].Valid {
			continue
		}

		if lim.DropDuplicates && axes[0] == anchorAxes[0] && axes[1] == anchorAxes[1] {
			verdicts[i] = Verdict{Gate: GateDuplicate, Reason: "Duplicate location"}
			continue
		}

		anchor = i
	}
}

// median returns the median of values, averaging the middle pair for even
// counts. The input is not modified.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
