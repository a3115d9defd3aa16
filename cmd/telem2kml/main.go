// Command telem2kml converts transmitter GPS telemetry logs into a sanitized
// KML track. Multiple logs are concatenated in sorted order, so a flight the
// transmitter split across files becomes one track.
//
// Usage:
//
//	go run ./cmd/telem2kml \
//	  -config settings.yml \
//	  -o flight.kml \
//	  logs/Model01-*.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/couchcryptid/flight-telemetry-kml/internal/adapter/csvlog"
	kafkaadapter "github.com/couchcryptid/flight-telemetry-kml/internal/adapter/kafka"
	"github.com/couchcryptid/flight-telemetry-kml/internal/adapter/kml"
	"github.com/couchcryptid/flight-telemetry-kml/internal/config"
	"github.com/couchcryptid/flight-telemetry-kml/internal/domain"
	"github.com/couchcryptid/flight-telemetry-kml/internal/observability"
	"github.com/couchcryptid/flight-telemetry-kml/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML settings (built-in defaults when empty)")
	outPath := flag.String("o", "", "output KML path (default: first input with a .kml extension)")
	publish := flag.Bool("publish", false, "publish sanitized fixes to Kafka even if settings leave it off")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return fmt.Errorf("no input logs given")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	inputs, err := expandInputs(flag.Args())
	if err != nil {
		return err
	}

	out := *outPath
	if out == "" {
		out = strings.TrimSuffix(inputs[0], filepath.Ext(inputs[0])) + ".kml"
	}
	track := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if *publish {
		cfg.Publish.Enabled = true
	}
	var publisher pipeline.PointPublisher
	if cfg.Publish.Enabled {
		if len(cfg.Publish.Brokers) == 0 || cfg.Publish.Topic == "" {
			return fmt.Errorf("publishing enabled but publish.brokers or publish.topic is not set")
		}
		kp := kafkaadapter.NewPublisher(cfg.Publish, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
	}

	source := csvlog.NewSource(domain.FieldTable(cfg.FieldMappings))
	p := pipeline.New(source, kml.Writer{}, publisher, cfg, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := p.Process(ctx, track, inputs, out)
	if err != nil {
		return err
	}

	log.Printf("wrote %s: %d points, %d interpolated, ground %g m",
		out, report.RowsRead-report.RowsSkipped, report.Interpolated, report.GroundElev)
	return nil
}

// expandInputs globs each argument. Shells expand wildcards themselves, but
// the patterns in transmitter manuals are often quoted, so globbing here too
// keeps those invocations working.
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			// Not a pattern, or nothing matched. Keep the literal path so a
			// missing file fails at read time with a clear message.
			inputs = append(inputs, arg)
			continue
		}
		inputs = append(inputs, matches...)
	}
	sort.Strings(inputs)
	return inputs, nil
}
