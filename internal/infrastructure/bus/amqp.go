package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const notificationsExchange = "notifications"

// AMQPBus routes events through a direct exchange with the topic as routing
// key. Subscriber queues are exclusive and auto-delete, so messages published
// while nobody listens are discarded by the broker — the same at-most-once,
// no-replay contract as the in-process bus.
type AMQPBus struct {
	conn *amqp.Connection
	log  logrus.FieldLogger

	mu      sync.Mutex
	pubChan *amqp.Channel
}

func NewAMQPBus(url string, log logrus.FieldLogger) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := declareExchange(ch); err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPBus{conn: conn, log: log, pubChan: ch}, nil
}

func declareExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		notificationsExchange,
		"direct",
		false, // durable: events are transient by contract
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

func (b *AMQPBus) Publish(ctx context.Context, topic, name string, payload map[string]any) error {
	ev := Event{Topic: topic, Name: name, Payload: payload, At: time.Now().UTC()}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pubChan.PublishWithContext(ctx,
		notificationsExchange,
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Transient,
			Timestamp:    ev.At,
		})
}

func (b *AMQPBus) Subscribe(ctx context.Context, topic string) (<-chan Event, func(), error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	q, err := ch.QueueDeclare(
		"",    // broker-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	if err := ch.QueueBind(q.Name, topic, notificationsExchange, false, nil); err != nil {
		ch.Close()
		return nil, nil, err
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}

	out := make(chan Event, subscriberBuffer)
	var once sync.Once
	cancel := func() {
		once.Do(func() { ch.Close() })
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal(d.Body, &ev); err != nil {
					if b.log != nil {
						b.log.WithError(err).Warn("dropping malformed notification")
					}
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	return out, cancel, nil
}

func (b *AMQPBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pubChan.Close(); err != nil && b.log != nil {
		b.log.WithError(err).Warn("failed to close publish channel")
	}
	return b.conn.Close()
}
