package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKeysByAppointment(t *testing.T) {
	msg, err := encode(AppointmentEvent{Type: AppointmentCancelled, AppointmentID: "apt-1", CancellationFee: 50})
	require.NoError(t, err)
	assert.Equal(t, "apt-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, AppointmentCancelled, string(msg.Headers[0].Value))

	var decoded AppointmentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.NotEmpty(t, decoded.ID)
	assert.False(t, decoded.OccurredAt.IsZero())
	assert.Equal(t, 50.0, decoded.CancellationFee)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), AppointmentEvent{}))
	assert.NoError(t, p.Close())
}

func TestKafkaPublisherDoesNotBlockCallers(t *testing.T) {
	var buf bytes.Buffer
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "appointments", zerolog.New(&buf))

	assert.True(t, p.writer.Async)
	assert.Equal(t, 3, p.writer.MaxAttempts)
	assert.Positive(t, p.writer.WriteTimeout)
	require.NotNil(t, p.writer.Completion)

	p.writer.Completion([]kafka.Message{{Key: []byte("apt-1")}}, nil)
	assert.Zero(t, buf.Len())

	p.writer.Completion([]kafka.Message{{Key: []byte("apt-1")}}, errors.New("broker unreachable"))
	assert.Contains(t, buf.String(), "broker unreachable")
	assert.Contains(t, buf.String(), `"topic":"appointments"`)
}
