package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/gpsurvey-insight/internal/config"
	"github.com/turtacn/gpsurvey-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/gpsurvey-insight/pkg/errors"
)

type mockKafkaWriter struct {
	mu        sync.Mutex
	written   []kafka.Message
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closes    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		if err := m.writeFunc(ctx, msgs...); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *mockKafkaWriter) messages() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]kafka.Message(nil), m.written...)
}

func newTestProducer(w WriterInterface) *Producer {
	return &Producer{
		writer:  w,
		config:  ProducerConfig{Brokers: []string{"localhost:9092"}, MaxMessageBytes: 1024},
		logger:  logging.NewNopLogger(),
		metrics: &ProducerMetrics{},
	}
}

func TestNewProducer_Defaults(t *testing.T) {
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}}, logging.NewNopLogger())
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 3, p.config.MaxRetries)
	assert.Equal(t, 100, p.config.BatchSize)
	assert.Equal(t, 10*time.Millisecond, p.config.BatchTimeout)
	assert.Equal(t, 1024*1024, p.config.MaxMessageBytes)
	assert.Equal(t, 10*time.Second, p.config.WriteTimeout)

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, 4, w.MaxAttempts)
}

func TestNewProducer_InvalidConfig(t *testing.T) {
	_, err := NewProducer(ProducerConfig{}, logging.NewNopLogger())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = NewProducer(ProducerConfig{Brokers: []string{"b"}, MaxRetries: -1}, logging.NewNopLogger())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestProducerConfigFrom(t *testing.T) {
	cfg := ProducerConfigFrom(config.KafkaConfig{
		Brokers:         []string{"k1:9092", "k2:9092"},
		TimeoutMS:       2500,
		ProducerRetries: 5,
		BatchSize:       20,
	})
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 20, cfg.BatchSize)
	assert.Equal(t, 2500*time.Millisecond, cfg.WriteTimeout)
}

func TestPublish_Success(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   TopicSurveySubmitted,
		Key:     []byte("u-7|2024-2025"),
		Value:   []byte(`{"ok":true}`),
		Headers: map[string]string{"event_type": EventTypeSurveySubmitted},
	})
	require.NoError(t, err)

	got := w.messages()
	require.Len(t, got, 1)
	assert.Equal(t, TopicSurveySubmitted, got[0].Topic)
	assert.Equal(t, "u-7|2024-2025", string(got[0].Key))
	require.Len(t, got[0].Headers, 1)
	assert.Equal(t, "event_type", got[0].Headers[0].Key)
	assert.False(t, got[0].Time.IsZero())
	assert.EqualValues(t, 1, p.Sent())
	assert.EqualValues(t, 11, p.metrics.BytesSent.Load())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	tests := []struct {
		name string
		msg  *ProducerMessage
	}{
		{"missing topic", &ProducerMessage{Value: []byte("x")}},
		{"missing value", &ProducerMessage{Topic: "t"}},
		{"too large", &ProducerMessage{Topic: "t", Value: make([]byte, 2048)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Publish(ctx, tt.msg)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
		})
	}
	assert.Zero(t, p.Sent())
}

func TestPublish_WriteError(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error {
		return errors.New("broker down")
	}}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("x")})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEventPublishFailed))
	assert.EqualValues(t, 1, p.metrics.MessagesFailed.Load())
}

func TestProducer_Close(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closes)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("x")})
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestProducer_ConcurrentPublish(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("x")})
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 20, p.Sent())
	assert.Len(t, w.messages(), 20)
}

//Personal.AI order the ending
