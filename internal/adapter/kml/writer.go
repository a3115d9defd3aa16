// Package kml serializes assembled scenes as KML documents readable by
// Google Earth and most GIS viewers.
package kml

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/couchcryptid/flight-telemetry-kml/internal/scene"
)

// Shared style identifiers within the document.
const (
	styleTrack        = "track"
	styleMeasured     = "measured"
	styleInterpolated = "interpolated"
)

// Writer writes scenes to KML files. It implements pipeline.SceneWriter.
type Writer struct{}

// WriteScene serializes the scene to path, replacing any existing file.
func (Writer) WriteScene(path string, sc scene.Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, sc); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Write renders the scene as an indented KML document: one tessellated
// LineString for the flight path and one Point placemark per fix, all at
// altitudes relative to the ground reference.
func Write(w io.Writer, sc scene.Scene) error {
	lineColor, err := ParseColor(sc.Style.LineColor)
	if err != nil {
		return err
	}
	iconColor, err := ParseColor(sc.Style.IconColor)
	if err != nil {
		return err
	}
	interpColor, err := ParseColor(sc.Style.InterpIconColor)
	if err != nil {
		return err
	}
	labelColor, err := ParseColor(sc.Style.LabelColor)
	if err != nil {
		return err
	}

	doc := kml.Document(
		kml.Name(sc.Name),
		kml.SharedStyle(styleTrack,
			kml.LineStyle(
				kml.Color(lineColor),
				kml.Width(sc.Style.LineWidth),
			),
		),
		pointStyle(styleMeasured, iconColor, labelColor, sc.Style),
		pointStyle(styleInterpolated, interpColor, labelColor, sc.Style),
	)

	coords := make([]kml.Coordinate, 0, len(sc.Path))
	for _, v := range sc.Path {
		coords = append(coords, kml.Coordinate{Lon: v.Lon, Lat: v.Lat, Alt: v.Alt})
	}
	doc.Add(kml.Placemark(
		kml.Name(sc.Name),
		kml.StyleURL("#"+styleTrack),
		kml.LineString(
			kml.Tessellate(true),
			kml.AltitudeMode(kml.AltitudeModeRelativeToGround),
			kml.Coordinates(coords...),
		),
	))

	for _, m := range sc.Markers {
		doc.Add(placemark(m))
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}

func pointStyle(id string, icon, label color.RGBA, st scene.Style) kml.Element {
	return kml.SharedStyle(id,
		kml.IconStyle(
			kml.Color(icon),
			kml.Scale(st.IconScale),
			kml.Icon(kml.Href(st.IconHref)),
		),
		kml.LabelStyle(
			kml.Color(label),
			kml.Scale(st.LabelScale),
		),
	)
}

func placemark(m scene.Marker) kml.Element {
	style := styleMeasured
	if m.Interpolated {
		style = styleInterpolated
	}

	children := make([]kml.Element, 0, 5)
	if m.Label != "" {
		children = append(children, kml.Name(m.Label))
	}
	children = append(children,
		kml.Description(describe(m)),
		kml.StyleURL("#"+style),
		kml.TimeStamp(kml.When(m.Timestamp)),
		kml.Point(
			kml.AltitudeMode(kml.AltitudeModeRelativeToGround),
			kml.Coordinates(kml.Coordinate{Lon: m.At.Lon, Lat: m.At.Lat, Alt: m.At.Alt}),
		),
	)
	return kml.Placemark(children...)
}

// describe renders the marker metadata as one "name: value" line per field,
// in the order the scene assembled them.
func describe(m scene.Marker) string {
	var b strings.Builder
	for _, f := range m.Metadata {
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	return b.String()
}

// ParseColor converts a KML aabbggrr hex string into a color.RGBA.
func ParseColor(s string) (color.RGBA, error) {
	if len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid KML color %q: want 8 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid KML color %q: %w", s, err)
	}
	return color.RGBA{
		A: uint8(v >> 24),
		B: uint8(v >> 16),
		G: uint8(v >> 8),
		R: uint8(v),
	}, nil
}
