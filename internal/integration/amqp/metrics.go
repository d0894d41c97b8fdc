package amqp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pc = promauto.NewCounter(prometheus.CounterOpts{
		Name: "integration_amqp_publish_count",
		Help: "The number of records published by the AMQP integration.",
	})
)

func amqpPublishCounter() prometheus.Counter {
	return pc
}
