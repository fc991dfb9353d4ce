package rmq

import (
	"github.com/streadway/amqp"
)

const traceName = "rmq"

const (
	exchangeKind       = amqp.ExchangeDirect
	exchangeDurable    = true
	exchangeAutoDelete = false
	exchangeInternal   = false
	exchangeNoWait     = false

	queueDurable    = true
	queueAutoDelete = false
	queueExclusive  = false
	queueNoWait     = false

	consumeAutoAck   = false
	consumeExclusive = false
	consumeNoLocal   = false
	consumeNoWait    = false

	publishMandatory = false
	publishImmediate = false

	prefetchCount = 1

	compressRoutingKey = "compress"
	contentTypeJSON    = "application/json"
)

// headerCarrier lets the otel propagator read and write trace context in
// AMQP message headers.
type headerCarrier amqp.Table

func (c headerCarrier) Get(key string) string {
	v, ok := c[key].(string)
	if !ok {
		return ""
	}
	return v
}

func (c headerCarrier) Set(key, value string) {
	c[key] = value
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
