package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/events"
	"fulfillment/internal/core/ports"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

func statusChanged() ports.OrderStatusChanged {
	return ports.OrderStatusChanged{
		AuditID:    "01J0000000000000000000AUDT",
		OrderID:    "8d3c2f8e-2f1a-4b7e-9d6a-0c4b1e2f3a4b",
		From:       "Preparing",
		To:         "DispatchedToCourier",
		Event:      "DispatchSucceeded",
		Actor:      "gateway",
		Version:    5,
		TrackingID: "TRK-1",
		OccurredAt: time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC),
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_WritesKeyedMessage(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(t.Context(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	writer := &MockWriter{}
	var written []kafka.Message
	writer.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(1).([]kafka.Message) }).
		Return(nil).Once()

	err := events.NewKafkaPublisher(writer).PublishStatusChanged(ctx, statusChanged())
	require.NoError(t, err)
	writer.AssertExpectations(t)

	require.Len(t, written, 1)
	msg := written[0]
	assert.Equal(t, "8d3c2f8e-2f1a-4b7e-9d6a-0c4b1e2f3a4b", string(msg.Key))
	assert.Equal(t, events.EventTypeStatusChanged, header(msg, "event-type"))
	assert.Equal(t, "01J0000000000000000000AUDT", header(msg, "event-id"))
	assert.Contains(t, header(msg, "traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "DispatchedToCourier", body["to"])
	assert.Equal(t, "TRK-1", body["trackingId"])
	assert.EqualValues(t, 5, body["version"])
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	writer := &MockWriter{}
	boom := errors.New("broker down")
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(boom).Once()

	err := events.NewKafkaPublisher(writer).PublishStatusChanged(t.Context(), statusChanged())
	require.ErrorIs(t, err, boom)
}

func TestLogPublisher_NeverFails(t *testing.T) {
	require.NoError(t, events.NewLogPublisher(nil).PublishStatusChanged(t.Context(), statusChanged()))
}
