// Package amqp implements an integration publishing the decoded records to
// an AMQP exchange.
package amqp

import (
	"context"
	"text/template"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/loralogger/lora-log-decoder/internal/config"
	"github.com/loralogger/lora-log-decoder/internal/integration"
	"github.com/loralogger/lora-log-decoder/internal/logging"
	"github.com/loralogger/lora-log-decoder/internal/models"
)

const channelPoolSize = 10

// Integration implements the AMQP integration.
type Integration struct {
	chPool     *channelPool
	exchange   string
	routingKey *template.Template
}

// New creates a new AMQP integration.
func New(c config.Config) (*Integration, error) {
	conf := c.Integration.AMQP

	i := Integration{
		exchange: conf.Exchange,
	}

	var err error
	i.routingKey, err = integration.ParseTemplate("routing_key", conf.RoutingKeyTemplate)
	if err != nil {
		return nil, err
	}

	log.Info("integration/amqp: connecting to AMQP server")
	i.chPool, err = newChannelPool(channelPoolSize, conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "integration/amqp: new channel pool error")
	}

	return &i, nil
}

// HandleRecord publishes the given record.
func (i *Integration) HandleRecord(ctx context.Context, r models.Record) error {
	routingKey, err := integration.ExecuteTemplate(i.routingKey, r)
	if err != nil {
		return err
	}

	b, err := integration.Marshal(r)
	if err != nil {
		return err
	}

	ch, err := i.chPool.get()
	if err != nil {
		return errors.Wrap(err, "integration/amqp: get channel error")
	}
	defer ch.release()

	err = ch.Publish(
		i.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        b,
		},
	)
	if err != nil {
		ch.markUnusable()
		return errors.Wrap(err, "integration/amqp: publish error")
	}

	amqpPublishCounter().Inc()

	logging.WithContext(ctx).WithFields(log.Fields{
		"exchange":    i.exchange,
		"routing_key": routingKey,
	}).Debug("integration/amqp: record published")

	return nil
}

// Close closes the integration.
func (i *Integration) Close() error {
	log.Info("integration/amqp: closing integration")
	return i.chPool.close()
}
