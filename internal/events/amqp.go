package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/salon-admin/internal/config"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
)

// Channel описывает часть *amqp.Channel, которой пользуется издатель.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher публикует события в topic-exchange.
type AMQPPublisher struct {
	ch       Channel
	exchange string
	log      *slog.Logger
}

// NewAMQPPublisher объявляет exchange и возвращает издателя.
func NewAMQPPublisher(ch Channel, exchange string, log *slog.Logger) (*AMQPPublisher, error) {
	const op = "events.NewAMQPPublisher"
	err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AMQPPublisher{ch: ch, exchange: exchange, log: sl.OrDiscard(log)}, nil
}

// Publish сериализует событие в JSON и отправляет его с routing key, равным типу.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	const op = "events.AMQPPublisher.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		p.exchange,
		string(ev.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    ev.ID,
			Timestamp:    ev.OccurredAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.log.Debug("event published", sl.Op(op), slog.String("type", string(ev.Type)), slog.String("id", ev.ID))
	return nil
}

// Connect подключается к брокеру, повторяя попытки.
func Connect(url string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "events.Connect"
	var conn *amqp.Connection
	var err error

	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// Open возвращает издателя по конфигурации. Пустой URL даёт Noop.
// Возвращаемая функция закрывает соединение.
func Open(cfg config.RabbitMQ, log *slog.Logger) (Publisher, func() error, error) {
	const op = "events.Open"
	if cfg.URL == "" {
		return Noop{}, func() error { return nil }, nil
	}

	conn, err := Connect(cfg.URL, 3, time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	pub, err := NewAMQPPublisher(ch, cfg.Exchange, log)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return pub, conn.Close, nil
}
