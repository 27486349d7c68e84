package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

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

func TestPublishEvent(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w}

	err := p.PublishEvent(context.Background(), TopicCartEvents, "user-1", map[string]any{
		"type":      "add_to_cart",
		"productID": 7,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, TopicCartEvents, msg.Topic)
	assert.Equal(t, "user-1", string(msg.Key))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "add_to_cart", body["type"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishEventErrors(t *testing.T) {
	p := &Producer{writer: &recordingWriter{err: errors.New("broker down")}}
	err := p.PublishEvent(context.Background(), TopicUserEvents, "k", map[string]any{"type": "login"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	err = p.PublishEvent(context.Background(), TopicUserEvents, "k", func() {})
	require.Error(t, err)
}

func TestNewProducerNeedsBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)

	p, err := NewProducer([]string{"localhost:9092"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
