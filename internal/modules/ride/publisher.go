// README: RabbitMQ publisher for ride state events.
package ride

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventExchange is a durable topic exchange; routing keys look like "ride.completed".
const EventExchange = "rides"

type AMQPPublisher struct {
	ch *amqp.Channel
}

func NewAMQPPublisher(ch *amqp.Channel) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(EventExchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", EventExchange, err)
	}
	return &AMQPPublisher{ch: ch}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e *Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal ride event: %w", err)
	}
	return p.ch.PublishWithContext(ctx,
		EventExchange,
		RoutingKey(e),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.CreatedAt,
			MessageId:    fmt.Sprintf("%s:%s", e.RideID, e.Type),
			Body:         body,
		},
	)
}

func RoutingKey(e *Event) string {
	return "ride." + e.Type
}
