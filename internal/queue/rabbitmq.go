package queue

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"scanpipe/custom_errors"
	"scanpipe/types"
)

var queueNames = map[types.Lane]string{
	types.LaneLow:    "low_tasks",
	types.LaneMedium: "medium_tasks",
	types.LaneHigh:   "high_tasks",
}

var routingKeys = map[types.Lane]string{
	types.LaneLow:    "tasks.low",
	types.LaneMedium: "tasks.medium",
	types.LaneHigh:   "tasks.high",
}

// RabbitMQFabric is the AMQP queue fabric: one durable queue per lane with a
// per-message priority ceiling of 10, bound to a direct exchange. Lanes are
// bounded with reject-publish overflow so a full lane surfaces as backpressure
// through publisher confirms instead of silently dropping.
type RabbitMQFabric struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	capacity int

	pubMu    sync.Mutex
	confirms chan amqp.Confirmation

	consumeOnce sync.Once
	consumeErr  error
	deliveries  map[types.Lane]<-chan amqp.Delivery
}

// NewRabbitMQFabric connects and declares the exchange, the three lane queues
// and their bindings.
func NewRabbitMQFabric(url, exchange string, laneCapacity int) (*RabbitMQFabric, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	if err := ch.ExchangeDeclare(
		exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	for _, lane := range types.AllLanes {
		if _, err := ch.QueueDeclare(
			queueNames[lane],
			true,
			false,
			false,
			false,
			amqp.Table{
				"x-max-priority": int32(10),
				"x-max-length":   int32(laneCapacity),
				"x-overflow":     "reject-publish",
			},
		); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}

		if err := ch.QueueBind(
			queueNames[lane],
			routingKeys[lane],
			exchange,
			false,
			nil,
		); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	return &RabbitMQFabric{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		capacity: laneCapacity,
		confirms: confirms,
	}, nil
}

func (r *RabbitMQFabric) Enqueue(ctx context.Context, lane types.Lane, subPriority int, body []byte) error {
	// Publishes are serialized so each confirmation can be matched to the
	// publish that produced it.
	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	err := r.channel.PublishWithContext(
		ctx,
		r.exchange,
		routingKeys[lane],
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Priority:     uint8(clampSubPriority(subPriority)),
			Body:         body,
		},
	)
	if err != nil {
		return err
	}

	select {
	case confirmation, ok := <-r.confirms:
		if !ok || !confirmation.Ack {
			// reject-publish overflow nacks the publish
			return custom_errors.ErrQueueFull
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *RabbitMQFabric) Dequeue(ctx context.Context) ([]byte, error) {
	if err := r.startConsumers(); err != nil {
		return nil, err
	}

	for {
		// Drain higher lanes first; fall through to a blocking wait across
		// all lanes only when everything is idle.
		for _, lane := range PullOrder {
			select {
			case msg, ok := <-r.deliveries[lane]:
				if !ok {
					return nil, ErrClosed
				}
				return msg.Body, nil
			default:
			}
		}

		select {
		case msg, ok := <-r.deliveries[types.LaneHigh]:
			if !ok {
				return nil, ErrClosed
			}
			return msg.Body, nil
		case msg, ok := <-r.deliveries[types.LaneMedium]:
			if !ok {
				return nil, ErrClosed
			}
			return msg.Body, nil
		case msg, ok := <-r.deliveries[types.LaneLow]:
			if !ok {
				return nil, ErrClosed
			}
			return msg.Body, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (r *RabbitMQFabric) startConsumers() error {
	r.consumeOnce.Do(func() {
		// One unacked message per consumer keeps lane preference meaningful
		// instead of the broker bulk-pushing a backlog.
		if err := r.channel.Qos(1, 0, false); err != nil {
			r.consumeErr = err
			return
		}

		r.deliveries = make(map[types.Lane]<-chan amqp.Delivery, len(types.AllLanes))
		for _, lane := range types.AllLanes {
			msgs, err := r.channel.Consume(
				queueNames[lane],
				"",
				true,
				false,
				false,
				false,
				nil,
			)
			if err != nil {
				r.consumeErr = err
				return
			}
			r.deliveries[lane] = msgs
		}
	})
	return r.consumeErr
}

func (r *RabbitMQFabric) Depths(ctx context.Context) (map[types.Lane]int, error) {
	depths := make(map[types.Lane]int, len(types.AllLanes))
	for _, lane := range types.AllLanes {
		q, err := r.channel.QueueDeclarePassive(
			queueNames[lane],
			true,
			false,
			false,
			false,
			amqp.Table{
				"x-max-priority": int32(10),
				"x-max-length":   int32(r.capacity),
				"x-overflow":     "reject-publish",
			},
		)
		if err != nil {
			return nil, err
		}
		depths[lane] = q.Messages
	}
	return depths, nil
}

func (r *RabbitMQFabric) Close() error {
	if err := r.channel.Close(); err != nil {
		_ = r.conn.Close()
		return err
	}
	return r.conn.Close()
}
