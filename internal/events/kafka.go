package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const Topic = "storefront-events"

type KafkaNotifier struct {
	origin string
	writer *kafka.Writer
}

func NewKafkaNotifier(origin string, brokers ...string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{origin: origin, writer: w}
}

func (n *KafkaNotifier) Notify(ctx context.Context, e Event) error {
	e.Origin = n.origin
	payload, err := encode(e)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(e.OwnerID), // owner id keeps one owner's events ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// Poller replays events written by other instances into the local hub.
// Each instance reads with its own consumer group so every instance sees every event.
type Poller struct {
	origin string
	hub    Notifier
	reader *kafka.Reader
	logger *zap.Logger
}

func NewPoller(hub Notifier, origin string, logger *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       Topic,
		GroupID:     "storefront-" + origin,
		StartOffset: kafka.LastOffset,
		MaxBytes:    10e6, // 10MB
	})
	return &Poller{origin: origin, hub: hub, reader: reader, logger: logger}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.deliverNext(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing reader", zap.Error(err))
	}
}

func (p *Poller) deliverNext(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("error reading message", zap.Error(err))
		}
		return
	}

	e, err := decode(m.Value)
	if err != nil {
		p.logger.Warn("error parsing message", zap.Error(err), zap.Int64("offset", m.Offset))
		return
	}
	// the producing instance already delivered locally
	if e.Origin == p.origin {
		return
	}

	if err := p.hub.Notify(ctx, e); err != nil {
		p.logger.Warn("failed to deliver event", zap.Error(err), zap.String("owner_id", e.OwnerID))
	}
}
