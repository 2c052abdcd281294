package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const EventsExchange = "storefront.events"

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"fanout",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
}

type RabbitNotifier struct {
	origin string
	mu     sync.Mutex
	ch     *amqp.Channel
}

func NewRabbitNotifier(conn *amqp.Connection, origin string) (*RabbitNotifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare %s: %w", EventsExchange, err)
	}
	return &RabbitNotifier{origin: origin, ch: ch}, nil
}

func (n *RabbitNotifier) Notify(ctx context.Context, e Event) error {
	e.Origin = n.origin
	body, err := encode(e)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	err = n.ch.PublishWithContext(ctx, EventsExchange, string(e.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (n *RabbitNotifier) Close() error {
	return n.ch.Close()
}

// StartRabbitSubscriber binds a private queue to the events exchange and
// forwards events from other instances into hub until ctx is done.
func StartRabbitSubscriber(ctx context.Context, conn *amqp.Connection, hub Notifier, origin string, logger *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		return fmt.Errorf("declare %s: %w", EventsExchange, err)
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", EventsExchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "storefront-"+origin, true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				logger.Info("stopping events subscriber")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("events channel closed")
					return
				}
				e, err := decode(msg.Body)
				if err != nil {
					logger.Warn("error parsing message", zap.Error(err))
					continue
				}
				if e.Origin == origin {
					continue
				}
				if err := hub.Notify(ctx, e); err != nil {
					logger.Warn("failed to deliver event", zap.Error(err))
				}
			}
		}
	}()
	return nil
}
