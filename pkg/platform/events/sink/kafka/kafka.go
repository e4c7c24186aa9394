// Package kafka publishes ledger events to a Kafka topic so downstream
// analytics and reporting consume the trail without touching the stores.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events"
)

// Sink produces one record per ledger event, keyed by subject so all events
// for a token or listing land in the same partition and stay ordered.
type Sink struct {
	client *kgo.Client
	topic  string
}

// record is the wire shape. Field names are part of the consumer contract.
type record struct {
	Name       string            `json:"name"`
	Timestamp  time.Time         `json:"timestamp"`
	Subject    string            `json:"subject"`
	Actor      string            `json:"actor,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
}

// New connects to the given brokers. The topic must already exist; this sink
// never auto-creates topics so partition counts stay under operator control.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Append(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(record{
		Name:       string(event.Name),
		Timestamp:  event.Timestamp,
		Subject:    event.Subject,
		Actor:      event.Actor,
		Attributes: event.Attributes,
		RequestID:  event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	rec := &kgo.Record{
		Key:   []byte(event.Subject),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce event %s: %w", event.Name, err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
