// Package scene assembles a sanitized track into renderable geometry: one
// flight path plus one styled marker per fix. It selects styles and looks up
// display fields; all computation happens upstream.
package scene

import (
	"errors"
	"time"

	"github.com/couchcryptid/flight-telemetry-kml/internal/domain"
)

// timeOfDayLayout formats marker labels when point labeling is enabled.
const timeOfDayLayout = "15:04:05"

// Style carries the rendering parameters for a scene. Colors are KML
// aabbggrr hex strings, validated at config load.
type Style struct {
	LineColor string
	LineWidth float64

	IconHref        string
	IconScale       float64
	IconColor       string
	InterpIconColor string

	LabelColor  string
	LabelScale  float64
	LabelPoints bool
}

// Vertex is one path point: lon/lat in degrees, altitude above ground in
// meters.
type Vertex struct {
	Lon float64
	Lat float64
	Alt float64
}

// Field is one name/value metadata pair shown with a marker.
type Field struct {
	Name  string
	Value string
}

// Marker is one rendered fix.
type Marker struct {
	Index        int
	Timestamp    time.Time
	At           Vertex
	Interpolated bool

	// Label is the time of day, empty unless point labeling is enabled.
	// The timestamp metadata stays available either way.
	Label string

	// Metadata lists the display fields in configured order; fields absent
	// from the record are skipped, not blanked.
	Metadata []Field
}

// Scene is the assembled visualization for one track.
type Scene struct {
	Name    string
	Path    []Vertex
	Markers []Marker
	Style   Style
}

// Assemble builds the scene for a repaired track. Records must already
// carry their height above ground; the path and markers use it as the
// altitude so rendering can sit relative to terrain.
func Assemble(records []domain.Record, name string, displayed []string, style Style) (Scene, error) {
	if len(records) == 0 {
		return Scene{}, errors.New("no records to assemble")
	}

	sc := Scene{
		Name:    name,
		Path:    make([]Vertex, 0, len(records)),
		Markers: make([]Marker, 0, len(records)),
		Style:   style,
	}

	for i := range records {
		r := &records[i]
		at := Vertex{Lon: r.Coord.Lon, Lat: r.Coord.Lat, Alt: r.HeightAboveGround}
		sc.Path = append(sc.Path, at)

		m := Marker{
			Index:        r.Index,
			Timestamp:    r.Timestamp,
			At:           at,
			Interpolated: r.Interpolated,
			Metadata:     make([]Field, 0, len(displayed)),
		}
		if style.LabelPoints {
			m.Label = r.Timestamp.Format(timeOfDayLayout)
		}
		for _, fname := range displayed {
			if v, ok := r.Display[fname]; ok {
				m.Metadata = append(m.Metadata, Field{Name: fname, Value: v})
			}
		}
		sc.Markers = append(sc.Markers, m)
	}

	return sc, nil
}
