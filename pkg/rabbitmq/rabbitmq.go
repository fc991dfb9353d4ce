package rabbitmq

import (
	"time"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"image_compression/config"
)

const heartbeat = 10 * time.Second

// NewRabbitMQConn dials the broker at cfg.URL.
func NewRabbitMQConn(cfg config.RMQ) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Properties: amqp.Table{
			"connection_name": cfg.Exchange,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "amqp.Dial")
	}
	return conn, nil
}
