package kafka

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/weather-feature-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawMessage(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("station-1"),
		Value:     []byte(`{"temperature":21.5}`),
		Topic:     "raw-sensor-readings",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("rooftop")},
		},
	}

	raw := mapMessageToRawMessage(msg)

	assert.Equal(t, []byte("station-1"), raw.Key)
	assert.JSONEq(t, `{"temperature":21.5}`, string(raw.Value))
	assert.Equal(t, "raw-sensor-readings", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "rooftop", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	rec := domain.FeatureRecord{
		ID:           "rec-1",
		StationID:    "station-1",
		Features:     domain.Features{Temperature: 0.43, ShortwaveRadiation: 0.013},
		NormalizedAt: now,
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("station-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"temperature_2m":0.43`)
	assert.Contains(t, string(msg.Value), `"shortwave_radiation":0.013`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "record_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("rec-1"), msg.Headers[0].Value)
	assert.Equal(t, "normalized_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_KeyFallsBackToID(t *testing.T) {
	msg, err := serializeToMessage(domain.FeatureRecord{ID: "rec-2"})
	require.NoError(t, err)
	assert.Equal(t, []byte("rec-2"), msg.Key)
}

func TestErrorLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	errorLogger(logger, "reader").Printf("connection to %s lost", "kafka:9092")

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `msg="connection to kafka:9092 lost"`)
	assert.Contains(t, out, "component=kafka_reader")
}
