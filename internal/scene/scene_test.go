package scene

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-telemetry-kml/internal/domain"
)

func testStyle() Style {
	return Style{
		LineColor:       "ff00a5ff",
		LineWidth:       4,
		IconHref:        "http://maps.google.com/mapfiles/kml/shapes/placemark_circle.png",
		IconScale:       0.5,
		IconColor:       "ff00ff00",
		InterpIconColor: "ff0000ff",
		LabelColor:      "ffffffff",
		LabelScale:      0.5,
		LabelPoints:     true,
	}
}

func testRecords() []domain.Record {
	ts := time.Date(2024, time.June, 8, 9, 30, 0, 0, time.UTC)
	return []domain.Record{
		{
			Index:      1,
			Timestamp:  ts,
			Coord:      domain.Coordinate{Lon: -105.2077, Lat: 40.0705, Elev: 1655},
			CoordValid: true,
			Display: map[string]string{
				"RSSI(dB)":                    "85",
				domain.FieldDescription:       domain.StatusValidFix,
				domain.FieldHeightAboveGround: "0",
			},
			Status: domain.StatusValidFix,
		},
		{
			Index:             2,
			Timestamp:         ts.Add(time.Second),
			Coord:             domain.Coordinate{Lon: -105.2076, Lat: 40.0706, Elev: 1658},
			CoordValid:        true,
			HeightAboveGround: 3,
			Interpolated:      true,
			Display: map[string]string{
				domain.FieldDescription:       domain.StatusInterpolated,
				domain.FieldHeightAboveGround: "3",
			},
			Status: domain.StatusInterpolated,
		},
	}
}

func TestAssemble(t *testing.T) {
	displayed := []string{"RSSI(dB)", domain.FieldHeightAboveGround, domain.FieldDescription}

	t.Run("path follows the repaired track at height above ground", func(t *testing.T) {
		sc, err := Assemble(testRecords(), "flight-42", displayed, testStyle())

		require.NoError(t, err)
		assert.Equal(t, "flight-42", sc.Name)
		require.Len(t, sc.Path, 2)
		assert.Equal(t, Vertex{Lon: -105.2077, Lat: 40.0705, Alt: 0}, sc.Path[0])
		assert.Equal(t, Vertex{Lon: -105.2076, Lat: 40.0706, Alt: 3}, sc.Path[1])
		assert.Equal(t, testStyle(), sc.Style)
	})

	t.Run("marker carries provenance and ordered metadata", func(t *testing.T) {
		sc, err := Assemble(testRecords(), "flight-42", displayed, testStyle())
		require.NoError(t, err)
		require.Len(t, sc.Markers, 2)

		expected := Marker{
			Index:        2,
			Timestamp:    time.Date(2024, time.June, 8, 9, 30, 1, 0, time.UTC),
			At:           Vertex{Lon: -105.2076, Lat: 40.0706, Alt: 3},
			Interpolated: true,
			Label:        "09:30:01",
			Metadata: []Field{
				{Name: domain.FieldHeightAboveGround, Value: "3"},
				{Name: domain.FieldDescription, Value: domain.StatusInterpolated},
			},
		}
		if diff := cmp.Diff(expected, sc.Markers[1]); diff != "" {
			t.Fatalf("marker mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("metadata keeps the configured order", func(t *testing.T) {
		sc, err := Assemble(testRecords(), "flight-42", displayed, testStyle())
		require.NoError(t, err)

		names := make([]string, 0, len(sc.Markers[0].Metadata))
		for _, f := range sc.Markers[0].Metadata {
			names = append(names, f.Name)
		}
		assert.Equal(t, displayed, names)
	})

	t.Run("labels stay empty when point labeling is off", func(t *testing.T) {
		style := testStyle()
		style.LabelPoints = false
		sc, err := Assemble(testRecords(), "flight-42", displayed, style)

		require.NoError(t, err)
		assert.Empty(t, sc.Markers[0].Label)
		assert.Empty(t, sc.Markers[1].Label)
	})

	t.Run("empty track", func(t *testing.T) {
		_, err := Assemble(nil, "flight-42", displayed, testStyle())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no records")
	})
}
