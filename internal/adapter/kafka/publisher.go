// Package kafka publishes sanitized track points to a Kafka topic for
// downstream consumers (dashboards, archival). The sink is optional; the
// pipeline works identically without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flight-telemetry-kml/internal/config"
	"github.com/couchcryptid/flight-telemetry-kml/internal/domain"
)

// Point is the JSON shape published for one sanitized fix.
type Point struct {
	Track        string    `json:"track"`
	Index        int       `json:"index"`
	Time         time.Time `json:"time"`
	Lon          float64   `json:"lon"`
	Lat          float64   `json:"lat"`
	Elevation    float64   `json:"elevation"`
	Sats         int       `json:"sats"`
	Interpolated bool      `json:"interpolated"`
	Status       string    `json:"status,omitempty"`
}

// Publisher produces sanitized points to a Kafka topic.
// It implements pipeline.PointPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg config.PublishConfig, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishTrack serializes and publishes every point of a sanitized track in
// a single WriteMessages call. All messages share the track name as key, so
// one track stays ordered within one partition.
func (p *Publisher) PublishTrack(ctx context.Context, track string, points []domain.Record) error {
	if len(points) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(points))
	for i := range points {
		msg, err := serializeToMessage(track, points[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish track %s: %w", track, err)
	}
	p.logger.Debug("published track points", "track", track, "points", len(points))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals one sanitized fix into a Kafka message.
func serializeToMessage(track string, rec domain.Record) (kafkago.Message, error) {
	point := Point{
		Track:        track,
		Index:        rec.Index,
		Time:         rec.Timestamp,
		Lon:          rec.Coord.Lon,
		Lat:          rec.Coord.Lat,
		Elevation:    rec.Coord.Elev,
		Sats:         rec.Sats,
		Interpolated: rec.Interpolated,
		Status:       rec.Status,
	}
	data, err := json.Marshal(point)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize point %d: %w", rec.Index, err)
	}
	return kafkago.Message{
		Key:   []byte(track),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "track", Value: []byte(track)},
			{Key: "interpolated", Value: []byte(strconv.FormatBool(rec.Interpolated))},
		},
	}, nil
}
