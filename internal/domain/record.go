package domain

import "time"

// Canonical field names consumed by the normalizer. Candidate source columns
// for each are configured per transmitter model.
const (
	FieldDate = "Date"
	FieldTime = "Time"
	FieldSats = "Sats"
	FieldGPS  = "GPS"
	FieldAlt  = "Alt(m)"
)

// Derived display fields attached during sanitization.
const (
	FieldHeightAboveGround = "Height above Ground (m)"
	FieldDescription       = "Point Description"
)

// Status values shared across the pipeline. Gate failures produce their own
// messages, e.g. "Bad satellite count: 2".
const (
	StatusValidFix     = "Valid GPS"
	StatusInterpolated = "Interpolated"
)

// RawRow is one log row keyed by source column name. The same logical
// quantity may appear under several names, or the same name may have been
// disambiguated by column position upstream.
type RawRow map[string]string

// CanonicalRow maps canonical field names to resolved values, plus any
// displayed pass-through fields.
type CanonicalRow map[string]string

// FieldTable maps a canonical field name to its candidate source columns in
// priority order: later entries override earlier ones when both are present.
type FieldTable map[string][]string

// Coordinate is a position fix: longitude and latitude in signed decimal
// degrees, elevation in meters.
type Coordinate struct {
	Lon  float64
	Lat  float64
	Elev float64
}

// Axes returns the coordinate as [lon, lat, elevation] for per-axis
// processing. SetAxes is its inverse.
func (c Coordinate) Axes() [3]float64 {
	return [3]float64{c.Lon, c.Lat, c.Elev}
}

// SetAxes replaces all three axes from [lon, lat, elevation].
func (c *Coordinate) SetAxes(a [3]float64) {
	c.Lon, c.Lat, c.Elev = a[0], a[1], a[2]
}

// AxisNames gives the human-readable axis names in Axes order.
var AxisNames = [3]string{"longitude", "latitude", "elevation"}

// Record is one normalized telemetry fix.
type Record struct {
	// Index is the 1-based position in the track sequence. It never changes
	// once assigned, so it stays a stable provenance key through repair.
	Index     int
	Timestamp time.Time

	// Coord is undefined when CoordValid is false: a partial parse failure
	// on any axis invalidates the whole coordinate.
	Coord      Coordinate
	CoordValid bool

	// Sats is the satellite count, zero when absent or unparsable.
	Sats int

	// HeightAboveGround is set once the whole track is repaired and a
	// ground reference is known.
	HeightAboveGround float64

	// Display holds the configured pass-through fields plus derived ones.
	Display map[string]string

	// Interpolated marks a repaired fix. It never reverts to false.
	Interpolated bool

	// Status is the fix provenance, mirrored into Display under the
	// "Point Description" name by SetStatus.
	Status string
}

// SetStatus records the fix provenance and mirrors it into the display
// fields so rendered points carry their own explanation.
func (r *Record) SetStatus(status string) {
	r.Status = status
	if r.Display == nil {
		r.Display = make(map[string]string, 1)
	}
	r.Display[FieldDescription] = status
}
