// Command trackwatchd watches a directory for new transmitter logs and
// converts each into a sanitized KML track, exposing health, status, and
// metrics endpoints over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/flight-telemetry-kml/internal/adapter/csvlog"
	httpadapter "github.com/couchcryptid/flight-telemetry-kml/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flight-telemetry-kml/internal/adapter/kafka"
	"github.com/couchcryptid/flight-telemetry-kml/internal/adapter/kml"
	"github.com/couchcryptid/flight-telemetry-kml/internal/config"
	"github.com/couchcryptid/flight-telemetry-kml/internal/domain"
	"github.com/couchcryptid/flight-telemetry-kml/internal/observability"
	"github.com/couchcryptid/flight-telemetry-kml/internal/pipeline"
	"github.com/couchcryptid/flight-telemetry-kml/internal/watch"
)

func main() {
	configPath := flag.String("config", "", "path to YAML settings (built-in defaults when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateWatch(); err != nil {
		slog.Error("invalid watch settings", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Point publishing is feature-flagged via publish.enabled.
	var publisher pipeline.PointPublisher
	var kafkaPub *kafkaadapter.Publisher
	if cfg.Publish.Enabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg.Publish, logger)
		publisher = kafkaPub
		logger.Info("point publishing enabled", "topic", cfg.Publish.Topic, "brokers", cfg.Publish.Brokers)
	} else {
		logger.Info("point publishing disabled")
	}

	source := csvlog.NewSource(domain.FieldTable(cfg.FieldMappings))
	p := pipeline.New(source, kml.Writer{}, publisher, cfg, logger, metrics)

	w := watch.New(cfg.Watch, p, nil, logger, metrics)
	srv := httpadapter.NewServer(cfg.Watch.HTTPAddr, w, w, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the directory watcher.
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("watcher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Watch.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
