package rmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"image_compression/config"
	"image_compression/entity"
	"image_compression/pkg/logger"
)

const retryDelay = 5 * time.Second

type compressionRunner interface {
	DoCompression(ctx context.Context, req entity.CompressionRequest) (entity.CompressionResponse, bool, error)
}

type publisher interface {
	Publish(ctx context.Context, exchange, key, corrID, replyTo string, body []byte) error
}

// AMQPWorker consumes compression requests and replies on each request's
// ReplyTo routing key.
type AMQPWorker struct {
	*amqpChannel
	pub        publisher
	cu         compressionRunner
	retryDelay time.Duration
}

func NewAMQPWorker(cfg config.RMQ, l logger.Interface, cu compressionRunner) (*AMQPWorker, error) {
	ch, err := dialChannel(cfg, l)
	if err != nil {
		return nil, err
	}
	if err := ch.amqpChan.Qos(prefetchCount, 0, false); err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "ch.Qos")
	}
	return &AMQPWorker{amqpChannel: ch, pub: ch, cu: cu, retryDelay: retryDelay}, nil
}

// StartConsumer declares the request queue and processes deliveries until
// the channel closes.
func (c *AMQPWorker) StartConsumer() error {
	if err := c.SetupExchangeAndQueue(c.cfg.Exchange, c.cfg.RequestQueue, compressRoutingKey); err != nil {
		return errors.Wrap(err, "SetupExchangeAndQueue")
	}

	deliveries, err := c.consume(c.cfg.RequestQueue)
	if err != nil {
		return errors.Wrap(err, "Consume")
	}

	closed := c.NotifyClose()
	go c.ConsumeCompression(deliveries)

	chanErr := <-closed
	if chanErr != nil {
		c.l.Error("ch.NotifyClose: %v", chanErr)
		return chanErr
	}
	return nil
}

func (c *AMQPWorker) ConsumeCompression(messages <-chan amqp.Delivery) {
	for delivery := range messages {
		c.handleDelivery(delivery)
	}
}

func (c *AMQPWorker) handleDelivery(delivery amqp.Delivery) {
	ctx, span := otel.Tracer(traceName).Start(extractContext(delivery), "consumer")
	defer span.End()

	var req entity.CompressionRequest
	if err := json.Unmarshal(delivery.Body, &req); err != nil {
		c.l.Error("amqp worker - json.Unmarshal: %v", err)
		delivery.Ack(false)
		return
	}
	if req.JobID == "" {
		req.JobID = delivery.CorrelationId
	}
	span.SetAttributes(attribute.String("job_id", req.JobID))

	res, shouldRetry, err := c.cu.DoCompression(ctx, req)
	if err != nil {
		c.l.Error("amqp worker - DoCompression %s: %v", req.JobID, err)
		if shouldRetry {
			delivery.Reject(true)
			time.Sleep(c.retryDelay)
			return
		}
	}

	if delivery.ReplyTo != "" {
		body, err := json.Marshal(res)
		if err != nil {
			c.l.Error("amqp worker - json.Marshal: %v", err)
			delivery.Ack(false)
			return
		}
		if err := c.pub.Publish(ctx, c.cfg.Exchange, delivery.ReplyTo, delivery.CorrelationId, "", body); err != nil {
			c.l.Error("amqp worker - Publish: %v", err)
			delivery.Reject(true)
			time.Sleep(c.retryDelay)
			return
		}
	}

	delivery.Ack(false)
}
