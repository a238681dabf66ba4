// Package kafka provides a snapshot row source over a Kafka topic: the
// topic is drained from its first offset to the high-water mark observed at
// connect time, and each message's flat JSON object becomes one raw row.
// One-shot semantics to fit the loader's one-shot contract; messages
// published after the snapshot point are picked up by the next load.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
)

// Source reads sighting rows from a single-partition topic, the layout the
// upstream collector publishes.
type Source struct {
	brokers []string
	topic   string
	logger  *slog.Logger
}

// NewSource creates a Kafka snapshot source.
func NewSource(brokers []string, topic string, logger *slog.Logger) *Source {
	return &Source{brokers: brokers, topic: topic, logger: logger}
}

func (s *Source) ReadRows(ctx context.Context) ([]map[string]string, error) {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     s.brokers,
		Topic:       s.topic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer r.Close()

	lag, err := r.ReadLag(ctx)
	if err != nil {
		return nil, fmt.Errorf("read lag for %s: %w", s.topic, err)
	}
	if lag == 0 {
		return nil, nil
	}

	rows := make([]map[string]string, 0, lag)
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.topic, err)
		}

		row, err := decodeRow(msg)
		if err != nil {
			// Malformed messages are skipped like any other bad row;
			// the normalizer's rejection accounting covers content issues.
			s.logger.Warn("skipping undecodable message",
				"error", err, "topic", msg.Topic, "offset", msg.Offset)
		} else {
			rows = append(rows, row)
		}

		if r.Lag() == 0 {
			return rows, nil
		}
	}
}

// decodeRow unmarshals a message's flat string-valued JSON object.
func decodeRow(msg kafkago.Message) (map[string]string, error) {
	var row map[string]string
	if err := json.Unmarshal(msg.Value, &row); err != nil {
		return nil, fmt.Errorf("decode row at offset %d: %w", msg.Offset, err)
	}
	return row, nil
}
