// Package publisher relays committed outbox events to Kafka.
package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	applog "freshmart/internal/log"
	"freshmart/internal/repos"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxSource interface {
	Unpublished(ctx context.Context, limit int) ([]*repos.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64) error
}

// Poller publishes each outbox row at least once, in id order.
type Poller struct {
	src      OutboxSource
	writer   MessageWriter
	interval time.Duration
	batch    int
}

func NewPoller(src OutboxSource, writer MessageWriter, interval time.Duration) *Poller {
	return &Poller{src: src, writer: writer, interval: interval, batch: 100}
}

// NewKafkaWriter builds the writer used in production.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func (p *Poller) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.Flush(ctx); err != nil && ctx.Err() == nil {
				applog.Error(nil, "outbox.flush", err, nil)
			}
		}
	}
}

// Flush publishes one batch and returns how many events went out. It stops at
// the first failure so later events never overtake an earlier one.
func (p *Poller) Flush(ctx context.Context) (int, error) {
	events, err := p.src.Unpublished(ctx, p.batch)
	if err != nil {
		return 0, fmt.Errorf("read outbox: %w", err)
	}
	sent := 0
	for _, ev := range events {
		msg := kafka.Message{
			Key:   []byte(ev.AggregateID),
			Value: ev.Payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(ev.EventType)},
			},
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			return sent, fmt.Errorf("publish event %d: %w", ev.ID, err)
		}
		if err := p.src.MarkPublished(ctx, ev.ID); err != nil {
			return sent, fmt.Errorf("mark event %d: %w", ev.ID, err)
		}
		sent++
	}
	if sent > 0 {
		applog.Info(nil, "outbox.published", map[string]any{"count": sent})
	}
	return sent, nil
}
