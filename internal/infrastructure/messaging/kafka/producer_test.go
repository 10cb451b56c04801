package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/protflow/internal/testutil"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// mockKafkaWriter
type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closeFunc func() error
	written   []kafka.Message
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockKafkaWriter) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockKafkaWriter) Stats() kafka.WriterStats {
	return kafka.WriterStats{}
}

func newTestProducer(w WriterInterface) *Producer {
	return NewProducerWithWriter(w, ProducerConfig{Brokers: []string{"localhost:9092"}}, testutil.NewMockLogger())
}

func TestValidateProducerConfig_Valid(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
}

func TestValidateProducerConfig_EmptyBrokers(t *testing.T) {
	err := ValidateProducerConfig(ProducerConfig{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestValidateProducerConfig_NegativeRetries(t *testing.T) {
	err := ValidateProducerConfig(ProducerConfig{Brokers: []string{"b"}, MaxRetries: -1})
	assert.Error(t, err)
}

func TestPublish_Success(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "test", Key: []byte("k"), Value: []byte("v"),
		Headers: map[string]string{"h": "1"}})
	require.NoError(t, err)
	require.Len(t, w.written, 1)
	assert.Equal(t, "test", w.written[0].Topic)
	assert.Equal(t, "k", string(w.written[0].Key))
	assert.Equal(t, "v", string(w.written[0].Value))
	assert.Equal(t, []kafka.Header{{Key: "h", Value: []byte("1")}}, w.written[0].Headers)
	assert.False(t, w.written[0].Time.IsZero())
	assert.Equal(t, int64(1), p.Sent())
}

func TestPublish_Failure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return errors.New("write failed")
	}}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "test", Value: []byte("v")})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMessageQueueError))
	assert.Equal(t, int64(1), p.Failed())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})

	assert.Error(t, p.Publish(context.Background(), &ProducerMessage{Value: []byte("v")}))
	assert.Error(t, p.Publish(context.Background(), &ProducerMessage{Topic: "t"}))
	big := make([]byte, 2*1024*1024)
	assert.Error(t, p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: big}))
}

func TestClose_Idempotent(t *testing.T) {
	calls := 0
	w := &mockKafkaWriter{closeFunc: func() error {
		calls++
		return nil
	}}
	p := newTestProducer(w)

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
	assert.Equal(t, 1, calls)
	assert.Equal(t, ErrProducerClosed, p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")}))
}

//Personal.AI order the ending
