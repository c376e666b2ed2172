package rabbitmq

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/usecase"
	"github.com/veersingh9540/DocumentDigitization-v1/pkg/logger"
)

// EventConsumer feeds storage notifications into the ingestion pipeline.
// Well-formed events that are not object creations are acked and dropped.
// Unrecognizable payloads are rejected without requeue so the broker can
// dead-letter them; retryable processing failures are requeued.
type EventConsumer struct {
	channel     *amqp.Channel
	exchange    string
	routingKey  string
	queue       string
	UseCase     *usecase.IngestUseCase
	log         *logger.Logger
	prefetchCnt int
}

func NewEventConsumer(conn *amqp.Connection, exchange, routingKey, queue string, uc *usecase.IngestUseCase, log *logger.Logger) (*EventConsumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	consumer := &EventConsumer{
		channel:     ch,
		exchange:    exchange,
		routingKey:  routingKey,
		queue:       queue,
		UseCase:     uc,
		log:         log,
		prefetchCnt: 1,
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true, // durable
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	if err := ch.QueueBind(
		queue,
		routingKey,
		exchange,
		false,
		nil,
	); err != nil {
		return nil, err
	}

	if err := ch.Qos(consumer.prefetchCnt, 0, false); err != nil {
		return nil, err
	}

	return consumer, nil
}

func (c *EventConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			c.log.Info("event consumer shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				c.log.Warn("rabbitmq channel closed")
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *EventConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	ref, err := entity.ParseStorageEvent(msg.Body)
	if errors.Is(err, entity.ErrEventIgnored) {
		// Well formed, just not an object creation.
		c.log.Debug("ignoring event", "error", err)
		_ = msg.Ack(false)
		return
	}
	if err != nil {
		c.log.Warn("rejecting event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	handled, err := c.UseCase.ProcessEvent(ctx, ref)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, entity.ErrUnresolvableDocumentID), errors.Is(err, entity.ErrSourceNotFound):
		// Redelivery cannot help here; surface to the dead-letter path.
		c.log.Warn("rejecting event", "key", ref.Key, "error", err)
		_ = msg.Nack(false, false)
	default:
		c.log.Error("failed to process document", "key", ref.Key, "error", err)
		_ = msg.Nack(false, true)
	}
	if !handled && err == nil {
		c.log.Debug("event ignored by filter", "key", ref.Key)
	}
}
