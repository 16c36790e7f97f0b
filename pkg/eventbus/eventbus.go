// Package eventbus fans committed journal events out to Kafka.
package eventbus

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/config"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/middleware/requestid"
)

// Publisher receives events after the transaction that wrote them commits.
type Publisher interface {
	Publish(ctx context.Context, events ...models.Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, ...models.Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is the wire form of one event.
type Message struct {
	ID          int64              `json:"id"`
	ContentType models.ContentType `json:"contentType"`
	ObjectID    int64              `json:"objectId"`
	Type        models.EventType   `json:"type"`
	Value       json.RawMessage    `json:"value"`
	CreatedBy   *string            `json:"createdBy,omitempty"`
	Created     time.Time          `json:"created"`
}

// KafkaPublisher writes events keyed by content type and object id, so one
// object's events stay ordered on a partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaPublisher builds a publisher from config.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic are required")
	}
	transport := &kafka.Transport{}
	if cfg.Username != "" {
		mechanism, err := scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("create sasl mechanism: %w", err)
		}
		transport.SASL = mechanism
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
		Transport:    transport,
	}
	return newKafkaPublisher(writer, logger), nil
}

func newKafkaPublisher(writer messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...models.Event) error {
	if len(events) == 0 {
		return nil
	}
	reqID := requestid.FromContext(ctx)
	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := encode(event, reqID)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Warn("publish events failed", zap.Int("count", len(msgs)), zap.Error(err))
		return fmt.Errorf("publish events: %w", err)
	}
	p.logger.Debug("events published", zap.Int("count", len(msgs)))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encode(event models.Event, reqID string) (kafka.Message, error) {
	value := json.RawMessage(event.Value)
	if !json.Valid(value) {
		quoted, err := json.Marshal(event.Value)
		if err != nil {
			return kafka.Message{}, fmt.Errorf("encode event %d value: %w", event.ID, err)
		}
		value = quoted
	}
	body, err := json.Marshal(Message{
		ID:          event.ID,
		ContentType: event.ContentType,
		ObjectID:    event.ObjectID,
		Type:        event.Type,
		Value:       value,
		CreatedBy:   event.CreatedBy,
		Created:     event.Created,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %d: %w", event.ID, err)
	}
	headers := []kafka.Header{{Key: "event-type", Value: []byte(event.Type)}}
	if reqID != "" {
		headers = append(headers, kafka.Header{Key: "request-id", Value: []byte(reqID)})
	}
	return kafka.Message{
		Key:     []byte(string(event.ContentType) + ":" + strconv.FormatInt(event.ObjectID, 10)),
		Value:   body,
		Time:    event.Created,
		Headers: headers,
	}, nil
}
