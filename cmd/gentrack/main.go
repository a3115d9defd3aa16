// Command gentrack writes a synthetic EdgeTX telemetry log with known
// anomalies baked in: a startup stretch with no GPS fix, a run of low
// satellite counts, an elevation spike, and a position jump. It exists to
// exercise the sanitizer end to end without flying anything.
//
// Usage:
//
//	go run ./cmd/gentrack -o testdata/flight.csv -points 500 -seed 1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"
)

var baseTime = time.Date(2024, time.June, 8, 9, 30, 0, 0, time.UTC)

// Launch site. The circuit is flown around this point.
const (
	centerLat = 40.0705
	centerLon = -105.2077
	groundAlt = 1655.0
	radiusDeg = 0.0012
)

var header = []string{
	"Date", "Time", "SWR", "RSSI(dB)", "RxBt(V)",
	"GPS", "Alt(m)", "GPS Speed(kmh)", "Sats", "Alt(m)", "VSpd(m/s)",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("o", "flight.csv", "output CSV path")
	points := flag.Int("points", 500, "number of telemetry rows")
	interval := flag.Duration("interval", time.Second, "time between rows")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *points < 20 {
		return fmt.Errorf("need at least 20 points, got %d", *points)
	}

	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var noFix, lowSat int
	for i := 0; i < *points; i++ {
		row, kind := makeRow(i, *points, *interval, rng)
		switch kind {
		case "nofix":
			noFix++
		case "lowsat":
			lowSat++
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	log.Printf("wrote %s: %d rows", *out, *points)
	log.Printf("anomalies: %d no-fix, %d low-sat, 1 elevation spike, 1 position jump", noFix, lowSat)
	return nil
}

// makeRow builds one telemetry row. The second return value names the
// anomaly injected into that row, if any.
func makeRow(i, points int, interval time.Duration, rng *rand.Rand) ([]string, string) {
	ts := baseTime.Add(time.Duration(i) * interval)
	kind := ""

	// One lap of the circuit every two minutes.
	angle := 2 * math.Pi * float64(i) / 120
	lat := centerLat + radiusDeg*math.Sin(angle)
	lon := centerLon + 1.3*radiusDeg*math.Cos(angle)

	// Smooth climb to ~120 m and back down over the whole flight.
	phase := 2 * math.Pi * float64(i) / float64(points)
	height := 60 * (1 - math.Cos(phase))
	vspd := 60 * math.Sin(phase) * 2 * math.Pi / float64(points)

	varioAlt := groundAlt + height + rng.Float64()*0.4
	gpsAlt := varioAlt + rng.NormFloat64()*2.5
	sats := 9 + rng.Intn(6)
	gps := fmt.Sprintf("%.6f %.6f", lat, lon)

	switch {
	case i < 5:
		// GPS has not locked yet after power-on.
		gps = ""
		gpsAlt = 0
		sats = 0
		kind = "nofix"
	case i >= points/2 && i < points/2+3:
		sats = 3
		kind = "lowsat"
	case i == points/4:
		// Barometer glitch.
		varioAlt += 1500
		kind = "spike"
	case i == 3*points/4:
		// Multipath jump.
		gps = fmt.Sprintf("%.6f %.6f", lat+0.05, lon)
		kind = "jump"
	}

	return []string{
		ts.Format("2006-01-02"),
		ts.Format("15:04:05") + ".000",
		fmt.Sprintf("%d", 20+rng.Intn(15)),
		fmt.Sprintf("%d", 80+rng.Intn(15)),
		fmt.Sprintf("%.1f", 8.2-float64(i)/float64(points)*0.6),
		gps,
		fmt.Sprintf("%.1f", gpsAlt),
		fmt.Sprintf("%.1f", 35+rng.Float64()*10),
		fmt.Sprintf("%d", sats),
		fmt.Sprintf("%.1f", varioAlt),
		fmt.Sprintf("%.1f", vspd),
	}, kind
}
