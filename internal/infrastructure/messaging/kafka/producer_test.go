package kafka

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

type fakeWriter struct {
	written []kafkago.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducer_Validation(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	assert.Error(t, err)

	_, err = NewProducer(config.KafkaConfig{}, logging.NewNop())
	assert.Error(t, err)

	p, err := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, logging.NewNop())
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestPublishEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newProducerWithWriter(w, logging.NewNop())

	env, err := NewEnvelope(EventAnalysisRequested, "apiserver", AnalysisRequestedEvent{
		RunID:        "run-1",
		TargetDomain: "example.com",
		Competitors:  []string{"rival.com"},
		RequestedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, p.PublishEvent(context.Background(), TopicAnalysisRequested, "run-1", env))

	require.Len(t, w.written, 1)
	msg := w.written[0]
	assert.Equal(t, TopicAnalysisRequested, msg.Topic)
	assert.Equal(t, []byte("run-1"), msg.Key)

	parsed, err := ParseEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, EventAnalysisRequested, parsed.EventType)

	var payload AnalysisRequestedEvent
	require.NoError(t, parsed.DecodePayload(&payload))
	assert.Equal(t, "example.com", payload.TargetDomain)

	sent, failed, bytes := p.Metrics()
	assert.Equal(t, int64(1), sent)
	assert.Equal(t, int64(0), failed)
	assert.Positive(t, bytes)
}

func TestPublishEvent_WriteFailure(t *testing.T) {
	w := &fakeWriter{err: assert.AnError}
	p := newProducerWithWriter(w, logging.NewNop())

	env, err := NewEnvelope(EventAnalysisFailed, "worker", AnalysisFailedEvent{RunID: "run-2"})
	require.NoError(t, err)

	err = p.PublishEvent(context.Background(), TopicAnalysisFailed, "run-2", env)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMessageQueueError, errors.GetCode(err))

	_, failed, _ := p.Metrics()
	assert.Equal(t, int64(1), failed)
}

func TestPublishEvent_AfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducerWithWriter(w, logging.NewNop())
	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "close is idempotent")

	env, _ := NewEnvelope(EventAnalysisCompleted, "worker", AnalysisCompletedEvent{RunID: "run-3"})
	assert.ErrorIs(t, p.PublishEvent(context.Background(), TopicAnalysisCompleted, "run-3", env), ErrProducerClosed)
	assert.True(t, w.closed)
}

func TestPublishEvent_Validation(t *testing.T) {
	p := newProducerWithWriter(&fakeWriter{}, logging.NewNop())

	env, _ := NewEnvelope(EventAnalysisRequested, "apiserver", AnalysisRequestedEvent{})
	assert.Error(t, p.PublishEvent(context.Background(), "", "k", env))
	assert.Error(t, p.PublishEvent(context.Background(), TopicAnalysisRequested, "k", nil))
}
