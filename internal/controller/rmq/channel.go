package rmq

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"

	"image_compression/config"
	"image_compression/pkg/logger"
	"image_compression/pkg/rabbitmq"
)

// amqpChannel holds the connection and channel shared by the client and
// the worker.
type amqpChannel struct {
	conn     *amqp.Connection
	amqpChan *amqp.Channel
	cfg      config.RMQ
	l        logger.Interface
}

func dialChannel(cfg config.RMQ, l logger.Interface) (*amqpChannel, error) {
	mqConn, err := rabbitmq.NewRabbitMQConn(cfg)
	if err != nil {
		return nil, err
	}
	amqpChan, err := mqConn.Channel()
	if err != nil {
		mqConn.Close()
		return nil, errors.Wrap(err, "amqpConn.Channel")
	}
	return &amqpChannel{conn: mqConn, amqpChan: amqpChan, cfg: cfg, l: l}, nil
}

// SetupExchangeAndQueue declares the exchange and queue and binds them.
func (c *amqpChannel) SetupExchangeAndQueue(exchange, queueName, bindingKey string) error {
	c.l.Info("Declaring exchange: %s", exchange)
	err := c.amqpChan.ExchangeDeclare(
		exchange,
		exchangeKind,
		exchangeDurable,
		exchangeAutoDelete,
		exchangeInternal,
		exchangeNoWait,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Error ch.ExchangeDeclare")
	}

	queue, err := c.amqpChan.QueueDeclare(
		queueName,
		queueDurable,
		queueAutoDelete,
		queueExclusive,
		queueNoWait,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Error ch.QueueDeclare")
	}

	c.l.Info("Declared queue, binding it to exchange: Queue: %v, messageCount: %v, consumerCount: %v, exchange: %v, bindingKey: %v",
		queue.Name,
		queue.Messages,
		queue.Consumers,
		exchange,
		bindingKey,
	)

	err = c.amqpChan.QueueBind(
		queue.Name,
		bindingKey,
		exchange,
		queueNoWait,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Error ch.QueueBind")
	}

	return nil
}

func (c *amqpChannel) consume(queue string) (<-chan amqp.Delivery, error) {
	deliveries, err := c.amqpChan.Consume(
		queue,
		"",
		consumeAutoAck,
		consumeExclusive,
		consumeNoLocal,
		consumeNoWait,
		nil,
	)
	if err != nil {
		return nil, errors.Wrap(err, "ch.Consume")
	}
	return deliveries, nil
}

// Publish sends a persistent message carrying the trace context of ctx.
func (c *amqpChannel) Publish(ctx context.Context, exchange, key, corrID, replyTo string, body []byte) error {
	c.l.Debug("Publishing message Exchange: %s, RoutingKey: %s", exchange, key)

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(headers))

	if err := c.amqpChan.Publish(
		exchange,
		key,
		publishMandatory,
		publishImmediate,
		amqp.Publishing{
			Headers:       headers,
			ContentType:   contentTypeJSON,
			DeliveryMode:  amqp.Persistent,
			MessageId:     uuid.New().String(),
			Timestamp:     time.Now(),
			CorrelationId: corrID,
			ReplyTo:       replyTo,
			Body:          body,
		},
	); err != nil {
		return errors.Wrap(err, "ch.Publish")
	}

	return nil
}

// NotifyClose returns a channel that receives the error closing the channel.
func (c *amqpChannel) NotifyClose() <-chan *amqp.Error {
	return c.amqpChan.NotifyClose(make(chan *amqp.Error, 1))
}

// Close closes the channel and the connection.
func (c *amqpChannel) Close() error {
	if err := c.amqpChan.Close(); err != nil {
		c.l.Error("amqp - Close - channel: %v", err)
		return err
	}
	return c.conn.Close()
}

func extractContext(d amqp.Delivery) context.Context {
	return otel.GetTextMapPropagator().Extract(context.Background(), headerCarrier(d.Headers))
}
