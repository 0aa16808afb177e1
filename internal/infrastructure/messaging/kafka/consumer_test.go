package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/gpsurvey-insight/internal/config"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/gpsurvey-insight/internal/testutil"
	apperrors "github.com/turtacn/gpsurvey-insight/pkg/errors"
)

// mockKafkaReader hands out queued messages, then blocks until ctx ends.
type mockKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockKafkaReader) commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

type stubPublisher struct {
	mu   sync.Mutex
	sent []*ProducerMessage
	err  error
}

func (s *stubPublisher) Publish(_ context.Context, msg *ProducerMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

func (s *stubPublisher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newTestConsumer(r ReaderInterface, retry RetryConfig, logger logging.Logger) *Consumer {
	return &Consumer{
		reader:   r,
		config:   ConsumerConfig{GroupID: "g", Topics: []string{TopicSurveySubmitted}, RetryConfig: retry},
		logger:   logger,
		handlers: make(map[string]MessageHandler),
		metrics:  &ConsumerMetrics{},
	}
}

func TestValidateConsumerConfig(t *testing.T) {
	valid := ConsumerConfig{Brokers: []string{"b"}, GroupID: "g", Topics: []string{"t"}}
	require.NoError(t, ValidateConsumerConfig(valid))

	tests := []struct {
		name   string
		mutate func(*ConsumerConfig)
	}{
		{"no brokers", func(c *ConsumerConfig) { c.Brokers = nil }},
		{"no group", func(c *ConsumerConfig) { c.GroupID = "" }},
		{"no topics", func(c *ConsumerConfig) { c.Topics = nil }},
		{"bad offset reset", func(c *ConsumerConfig) { c.AutoOffsetReset = "middle" }},
		{"negative retries", func(c *ConsumerConfig) { c.RetryConfig.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.True(t, apperrors.IsCode(ValidateConsumerConfig(cfg), apperrors.ErrCodeValidation))
		})
	}
}

func TestConsumerConfigFrom(t *testing.T) {
	cfg := ConsumerConfigFrom(config.KafkaConfig{
		Brokers:         []string{"k:9092"},
		GroupID:         "gpsurvey-worker",
		SubmissionTopic: "surveys",
	})
	assert.Equal(t, []string{"surveys"}, cfg.Topics)
	assert.Equal(t, "gpsurvey-worker", cfg.GroupID)
	assert.Equal(t, "surveys.dlq", cfg.RetryConfig.DeadLetterTopic)
	assert.Equal(t, 3, cfg.RetryConfig.MaxRetries)
}

func TestConsumer_DispatchesAndCommits(t *testing.T) {
	r := &mockKafkaReader{queue: []kafka.Message{
		{Topic: TopicSurveySubmitted, Offset: 1, Value: []byte("a"), Headers: []kafka.Header{{Key: "event_type", Value: []byte("survey.submitted")}}},
		{Topic: "unknown", Offset: 2, Value: []byte("b")},
	}}
	c := newTestConsumer(r, RetryConfig{}, logging.NewNopLogger())

	var got atomic.Value
	c.Subscribe(TopicSurveySubmitted, func(_ context.Context, msg *Message) error {
		got.Store(msg)
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)

	require.Eventually(t, func() bool { return r.commits() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	msg := got.Load().(*Message)
	assert.Equal(t, "a", string(msg.Value))
	assert.Equal(t, "survey.submitted", msg.Headers["event_type"])
	assert.EqualValues(t, 1, c.Processed())
	assert.True(t, r.closed)
}

func TestProcessMessage_RetriesThenSucceeds(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{MaxRetries: 3, RetryBackoff: time.Millisecond}, logging.NewNopLogger())

	calls := 0
	handler := func(context.Context, *Message) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}

	require.NoError(t, c.processMessage(context.Background(), &Message{Topic: "t"}, handler))
	assert.Equal(t, 3, calls)
	assert.EqualValues(t, 2, c.metrics.MessagesRetried.Load())
	assert.EqualValues(t, 1, c.metrics.MessagesProcessed.Load())
}

func TestProcessMessage_DeadLettersAfterRetries(t *testing.T) {
	dl := &stubPublisher{}
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{
		MaxRetries:      2,
		RetryBackoff:    time.Millisecond,
		MaxRetryBackoff: 2 * time.Millisecond,
		DeadLetterTopic: "t.dlq",
	}, logging.NewNopLogger())
	c.deadLetter = dl

	calls := 0
	handler := func(context.Context, *Message) error {
		calls++
		return errors.New("poison")
	}

	msg := &Message{Topic: "t", Key: []byte("k"), Value: []byte("v"), Headers: map[string]string{"trace_id": "x"}}
	require.NoError(t, c.processMessage(context.Background(), msg, handler))
	assert.Equal(t, 3, calls)

	require.Equal(t, 1, dl.count())
	sent := dl.sent[0]
	assert.Equal(t, "t.dlq", sent.Topic)
	assert.Equal(t, "t", sent.Headers["original_topic"])
	assert.Equal(t, "poison", sent.Headers["error_message"])
	assert.Equal(t, "x", sent.Headers["trace_id"])
	assert.EqualValues(t, 1, c.metrics.MessagesDeadLettered.Load())
	assert.EqualValues(t, 1, c.metrics.MessagesFailed.Load())
}

func TestProcessMessage_DeadLetterFailureIsLogged(t *testing.T) {
	log := testutil.NewMockLogger()
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{DeadLetterTopic: "t.dlq"}, log)
	c.deadLetter = &stubPublisher{err: errors.New("broker down")}

	err := c.processMessage(context.Background(), &Message{Topic: "t"}, func(context.Context, *Message) error {
		return errors.New("poison")
	})
	require.NoError(t, err)
	assert.True(t, log.HasMessage("error", "message processing failed after retries"))
	assert.True(t, log.HasMessage("error", "failed to send to dead letter topic"))
	assert.Zero(t, c.metrics.MessagesDeadLettered.Load())
}

func TestProcessMessage_CancelledDuringBackoff(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{MaxRetries: 5, RetryBackoff: time.Hour}, logging.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.processMessage(ctx, &Message{Topic: "t"}, func(context.Context, *Message) error {
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

//Personal.AI order the ending
