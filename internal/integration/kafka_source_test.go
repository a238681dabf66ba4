//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkasource "github.com/nightsift/sighting-data-service/internal/adapter/kafka"
)

const testReportTopic = "raw-sighting-reports"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-sightings"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic provisions a single-partition topic so the snapshot source's
// partition-0 drain sees every message.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic")
}

func publishRows(ctx context.Context, t *testing.T, broker, topic string, rows []map[string]string) {
	t.Helper()

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: topic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(rows))
	for _, row := range rows {
		payload, err := json.Marshal(row)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Value: payload})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...), "publish rows")
}

// TestKafkaSourceSnapshot verifies that ReadRows drains exactly the messages
// present at connect time and decodes each into a raw row.
func TestKafkaSourceSnapshot(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	published := []map[string]string{
		{
			"datetime":           "10/10/1949 20:30",
			"city":               "san marcos",
			"state":              "tx",
			"country":            "us",
			"shape":              "cylinder",
			"duration (seconds)": "2700",
			"comments":           "green craft over the river",
			"latitude":           "29.8830556",
			"longitude":          "-97.9411111",
		},
		{
			"datetime":           "6/1/1995 23:00",
			"city":               "leeds",
			"country":            "gb",
			"shape":              "sphere",
			"duration (seconds)": "120",
		},
		{
			"datetime": "4/4/2004 04:04",
			"city":     "perth",
			"country":  "au",
			"shape":    "light",
		},
	}
	publishRows(ctx, t, broker, testReportTopic, published)

	source := kafkasource.NewSource([]string{broker}, testReportTopic, discardLogger())

	rows, err := source.ReadRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, len(published))
	assert.Equal(t, published, rows)
}

// TestKafkaSourceSkipsMalformed verifies that an undecodable message is
// dropped without failing the snapshot.
func TestKafkaSourceSkipsMalformed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	good := map[string]string{
		"datetime":           "9/9/1999 21:00",
		"city":               "calgary",
		"country":            "ca",
		"shape":              "triangle",
		"duration (seconds)": "600",
	}
	goodPayload, err := json.Marshal(good)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testReportTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Value: []byte("not-json{{{")},
		kafkago.Message{Value: goodPayload},
	))

	source := kafkasource.NewSource([]string{broker}, testReportTopic, discardLogger())

	rows, err := source.ReadRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, good, rows[0])
}

// TestKafkaSourceEmptyTopic verifies that an empty topic yields an empty
// snapshot rather than blocking.
func TestKafkaSourceEmptyTopic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	source := kafkasource.NewSource([]string{broker}, testReportTopic, discardLogger())

	rows, err := source.ReadRows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
