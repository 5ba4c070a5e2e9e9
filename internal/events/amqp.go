package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sheks-house/storefront/internal/domain/order"
)

const (
	exchangeName  = "shek.orders"
	routingPlaced = "order.placed"
)

// AMQPPublisher publishes order events to a durable topic exchange.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ Publisher = (*AMQPPublisher)(nil)

// DialAMQP connects to the broker and declares the orders exchange.
func DialAMQP(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

// PublishOrderPlaced emits an order.placed event for the given order.
func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	items := make([]OrderPlacedItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderPlacedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	env := Envelope{
		Event:      routingPlaced,
		EventID:    uuid.New().String(),
		OccurredAt: time.Now().UTC(),
		Payload: OrderPlacedPayload{
			OrderID:     o.ID,
			OrderNumber: o.Number,
			UserID:      o.UserID,
			Total:       o.Total,
			CouponCode:  o.CouponCode,
			Items:       items,
		},
	}

	body, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	if err := p.ch.PublishWithContext(ctx,
		exchangeName,
		routingPlaced,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   env.EventID,
			Timestamp:   env.OccurredAt,
			Body:        body,
		},
	); err != nil {
		return errors.Wrap(err, "publish order.placed")
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return errors.Wrap(err, "close channel")
	}
	return p.conn.Close()
}
