package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/pkg/errors"
)

const (
	TopicStageCompleted = "protflow.stage.completed"

	EventTypeStageCompleted = "stage.completed"
	EventSource             = "protflow"
	SchemaVersion           = "v1"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func NewEventEnvelope(eventType string, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// ToMessage encodes the envelope for topic, keyed by key.
func (e *EventEnvelope) ToMessage(topic string, key string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	return &ProducerMessage{
		Topic: topic,
		Key:   []byte(key),
		Value: val,
		Headers: map[string]string{
			"event_type":     e.EventType,
			"source_service": e.Source,
			"schema_version": e.SchemaVersion,
		},
		Timestamp: e.Timestamp,
	}, nil
}

// EventPublisher emits stage completion events keyed by run ID so a run's
// events land on one partition in order.
type EventPublisher struct {
	producer *Producer
	topic    string
	logger   logging.Logger
}

func NewEventPublisher(producer *Producer, topic string, logger logging.Logger) *EventPublisher {
	if topic == "" {
		topic = TopicStageCompleted
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EventPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *EventPublisher) PublishStage(ctx context.Context, ev docking.StageEvent) error {
	env, err := NewEventEnvelope(EventTypeStageCompleted, EventSource, ev)
	if err != nil {
		return err
	}
	if ev.EventID != "" {
		env.EventID = ev.EventID
	}
	env.Metadata = map[string]string{"stage": ev.Stage}

	msg, err := env.ToMessage(p.topic, ev.RunID)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return err
	}
	p.logger.Debug("stage event published",
		logging.String("run_id", ev.RunID),
		logging.String("stage", ev.Stage))
	return nil
}

func (p *EventPublisher) Close() error {
	return p.producer.Close()
}

//Personal.AI order the ending
