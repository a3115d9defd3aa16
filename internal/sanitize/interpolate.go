package sanitize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/flight-telemetry-kml/internal/domain"
)

// Interpolate repairs every rejected fix in place. Interior runs of rejected
// fixes are blended per axis between the bounding valid neighbors, weighted
// by elapsed time; runs at either end of the track clamp to the nearest
// valid fix since only one side exists. Repaired fixes are marked
// interpolated and never feed back into detection statistics.
//
// After repair every fix, measured or repaired, is rounded once per axis so
// the whole track shares the same output precision.
func Interpolate(records []domain.Record, verdicts []Verdict, lim Limits) error {
	valid := make([]int, 0, len(records))
	for i := range verdicts {
		if verdicts[i].Valid {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return fmt.Errorf("no valid fixes remain to repair from: %w", ErrIrrecoverableTrack)
	}

	for i := range records {
		if verdicts[i].Valid {
			continue
		}

		prev, next := neighbors(valid, i)
		switch {
		case prev == -1:
			records[i].Coord = records[next].Coord
		case next == -1:
			records[i].Coord = records[prev].Coord
		default:
			records[i].Coord = blend(records[prev], records[next], records[i].Timestamp)
		}

		records[i].CoordValid = true
		records[i].Interpolated = true
		records[i].SetStatus(domain.StatusInterpolated)
	}

	for i := range records {
		axes := records[i].Coord.Axes()
		for k := range axes {
			axes[k] = roundTo(axes[k], lim.Rounding[k])
		}
		records[i].Coord.SetAxes(axes)
	}

	return nil
}

// neighbors returns the indexes of the nearest valid records before and
// after i, or -1 where none exists. valid must be sorted ascending.
func neighbors(valid []int, i int) (prev, next int) {
	pos := sort.SearchInts(valid, i)
	prev, next = -1, -1
	if pos > 0 {
		prev = valid[pos-1]
	}
	if pos < len(valid) {
		next = valid[pos]
	}
	return prev, next
}

// blend interpolates linearly between two valid fixes at time t. The weight
// is the elapsed-time fraction, so unevenly spaced rows land proportionally
// rather than at the midpoint. Coincident neighbor timestamps collapse the
// blend onto the earlier fix.
func blend(a, b domain.Record, t time.Time) domain.Coordinate {
	span := b.Timestamp.Sub(a.Timestamp).Seconds()
	if span <= 0 {
		return a.Coord
	}
	f := t.Sub(a.Timestamp).Seconds() / span

	av, bv := a.Coord.Axes(), b.Coord.Axes()
	var out domain.Coordinate
	var axes [3]float64
	for k := range axes {
		axes[k] = av[k] + f*(bv[k]-av[k])
	}
	out.SetAxes(axes)
	return out
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// ApplyGroundReference derives each record's height above ground and returns
// the reference used. The reference is the supplied elevation when set,
// otherwise the lowest elevation in the repaired track, which makes the
// landing spot ground zero for flights logged at altitude.
func ApplyGroundReference(records []domain.Record, override *float64) float64 {
	var ground float64
	if override != nil {
		ground = *override
	} else {
		for i := range records {
			if i == 0 || records[i].Coord.Elev < ground {
				ground = records[i].Coord.Elev
			}
		}
	}

	for i := range records {
		h := records[i].Coord.Elev - ground
		records[i].HeightAboveGround = h
		if records[i].Display == nil {
			records[i].Display = make(map[string]string, 1)
		}
		records[i].Display[domain.FieldHeightAboveGround] = strconv.FormatFloat(h, 'f', -1, 64)
	}

	return ground
}
