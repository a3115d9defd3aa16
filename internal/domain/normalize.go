package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayout matches the transmitter's Date and Time columns joined with
// a space. time.Parse accepts the fractional seconds in the Time column even
// though the layout does not name them.
const timestampLayout = "2006-01-02 15:04:05"

// NormalizeRecord converts one canonical row into a typed Record.
//
// The timestamp is the only hard requirement: a row without a parsable
// Date+Time cannot be ordered or interpolated against, so it is returned as
// an error for the caller to skip. Everything else degrades gracefully: a
// missing or unparsable satellite count reads as zero, and a parse failure
// on any coordinate axis leaves the whole coordinate undefined for the
// detector to repair.
func NormalizeRecord(index int, row CanonicalRow, display []string) (Record, error) {
	ts, err := parseTimestamp(row)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Index:     index,
		Timestamp: ts,
		Sats:      parseSats(row[FieldSats]),
		Display:   make(map[string]string, len(display)),
	}
	rec.Coord, rec.CoordValid = parseCoordinate(row[FieldGPS], row[FieldAlt])

	for _, name := range display {
		if v, ok := row[name]; ok {
			rec.Display[name] = v
		}
	}

	return rec, nil
}

func parseTimestamp(row CanonicalRow) (time.Time, error) {
	date, okDate := row[FieldDate]
	clock, okTime := row[FieldTime]
	if !okDate || !okTime {
		return time.Time{}, fmt.Errorf("missing %s or %s field", FieldDate, FieldTime)
	}

	ts, err := time.Parse(timestampLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return ts, nil
}

// parseSats parses a satellite count, returning 0 on failure so absent
// counts fail the satellite gate rather than slipping through.
func parseSats(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseCoordinate parses the "lat lon" GPS pair and the altitude column into
// a (lon, lat, elevation) coordinate. Any axis failing to parse invalidates
// the whole coordinate: a fix is either fully defined or not a fix at all.
func parseCoordinate(gps, alt string) (Coordinate, bool) {
	parts := strings.Fields(gps)
	if len(parts) != 2 {
		return Coordinate{}, false
	}

	lat, errLat := strconv.ParseFloat(parts[0], 64)
	lon, errLon := strconv.ParseFloat(parts[1], 64)
	elev, errElev := strconv.ParseFloat(strings.TrimSpace(alt), 64)
	if errLat != nil || errLon != nil || errElev != nil {
		return Coordinate{}, false
	}

	return Coordinate{Lon: lon, Lat: lat, Elev: elev}, true
}
