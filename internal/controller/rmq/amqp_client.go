package rmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"image_compression/config"
	"image_compression/entity"
	"image_compression/pkg/logger"
)

// AMQPClient publishes compression jobs and collects the worker's replies.
type AMQPClient struct {
	*amqpChannel
	jobs *JobClient
}

var _ entity.CompressionPlanner = (*AMQPClient)(nil)

func NewAMQPClient(cfg config.RMQ, jobs *JobClient, l logger.Interface) (*AMQPClient, error) {
	ch, err := dialChannel(cfg, l)
	if err != nil {
		return nil, err
	}

	if err := ch.SetupExchangeAndQueue(cfg.Exchange, cfg.ResponseQueue, cfg.ResponseQueue); err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "SetupExchangeAndQueue")
	}

	return &AMQPClient{amqpChannel: ch, jobs: jobs}, nil
}

// ResponseConsumer feeds replies from the response queue into the job
// client until the channel closes.
func (c *AMQPClient) ResponseConsumer() error {
	deliveries, err := c.consume(c.cfg.ResponseQueue)
	if err != nil {
		return err
	}

	for d := range deliveries {
		_, span := otel.Tracer(traceName).Start(extractContext(d), "ResponseConsumer")

		var res entity.CompressionResponse
		if err := json.Unmarshal(d.Body, &res); err != nil {
			c.l.Error("amqp client - ResponseConsumer - json.Unmarshal: %v", err)
			d.Ack(false)
			span.End()
			continue
		}

		if !c.jobs.SetResponse(d.CorrelationId, res) {
			c.l.Warn("amqp client - response for unknown job %s", d.CorrelationId)
		}
		d.Ack(false)
		span.End()
	}

	chanErr := <-c.NotifyClose()
	if chanErr != nil {
		c.l.Error("ch.NotifyClose: %v", chanErr)
		return chanErr
	}
	return nil
}

// PlanCompression queues req unless an identical job is already pending,
// and returns the job id.
func (c *AMQPClient) PlanCompression(ctx context.Context, req entity.CompressionRequest) (string, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "PlanCompression")
	defer span.End()

	jobID, exists := c.jobs.GetOrCreateJob(req)
	span.SetAttributes(attribute.String("job_id", jobID), attribute.Bool("deduplicated", exists))
	if exists {
		return jobID, nil
	}

	req.JobID = jobID
	body, err := json.Marshal(req)
	if err != nil {
		c.jobs.Forget(jobID)
		return "", err
	}

	if err := c.Publish(ctx, c.cfg.Exchange, compressRoutingKey, jobID, c.cfg.ResponseQueue, body); err != nil {
		c.jobs.Forget(jobID)
		return "", err
	}

	c.l.Info("amqp client - queued job %s for %s/%s", jobID, req.Bucket, req.Key)
	return jobID, nil
}

func (c *AMQPClient) GetCompression(ctx context.Context, jobID string, wait time.Duration) (entity.CompressionResponse, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "GetCompression")
	defer span.End()

	return c.jobs.GetResponse(ctx, jobID, wait)
}
