package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BartekS5/activity-etl/pkg/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishWritesKeyedEvent(t *testing.T) {
	w := &recordingWriter{}
	n := NewKafkaNotifierWithWriter(w)

	event := models.RunCompleted{
		RunID:      "run-42",
		RowsLoaded: 7,
		Watermark:  time.Date(2024, 1, 5, 12, 30, 45, 0, time.UTC),
		FinishedAt: time.Date(2024, 1, 5, 12, 31, 0, 0, time.UTC),
	}
	require.NoError(t, n.Publish(context.Background(), event))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "run-42", string(w.msgs[0].Key))
	assert.Equal(t, "activity_etl.run_completed", string(w.msgs[0].Headers[0].Value))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "run-42", got["run_id"])
	assert.Equal(t, float64(7), got["rows_loaded"])
	assert.Equal(t, "2024-01-05T12:30:45Z", got["watermark"])
}

func TestPublishWrapsWriterError(t *testing.T) {
	n := NewKafkaNotifierWithWriter(&recordingWriter{err: errors.New("leader not available")})

	err := n.Publish(context.Background(), models.RunCompleted{RunID: "run-1"})
	assert.ErrorContains(t, err, "publish run run-1: leader not available")
}

func TestCloseClosesWriter(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, NewKafkaNotifierWithWriter(w).Close())
	assert.True(t, w.closed)
}
