// Package nats implements an integration publishing the decoded records to
// NATS subjects.
package nats

import (
	"context"
	"text/template"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/loralogger/lora-log-decoder/internal/config"
	"github.com/loralogger/lora-log-decoder/internal/integration"
	"github.com/loralogger/lora-log-decoder/internal/logging"
	"github.com/loralogger/lora-log-decoder/internal/models"
)

// Integration implements the NATS integration.
type Integration struct {
	conn    *nats.Conn
	subject *template.Template
}

// New creates a new NATS integration.
func New(c config.Config) (*Integration, error) {
	conf := c.Integration.NATS

	subject, err := integration.ParseTemplate("subject", conf.SubjectTemplate)
	if err != nil {
		return nil, err
	}

	opts := []nats.Option{
		nats.Name("lora-log-decoder"),
		nats.MaxReconnects(conf.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.WithError(err).Warning("integration/nats: disconnected from nats server")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("integration/nats: reconnected to nats server")
		}),
	}
	if conf.Username != "" || conf.Password != "" {
		opts = append(opts, nats.UserInfo(conf.Username, conf.Password))
	}
	if conf.ReconnectWait != 0 {
		opts = append(opts, nats.ReconnectWait(conf.ReconnectWait))
	}

	log.WithField("url", conf.URL).Info("integration/nats: connecting to nats server")
	conn, err := nats.Connect(conf.URL, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "integration/nats: connect error")
	}

	return &Integration{
		conn:    conn,
		subject: subject,
	}, nil
}

// HandleRecord publishes the given record.
func (i *Integration) HandleRecord(ctx context.Context, r models.Record) error {
	subject, err := integration.ExecuteTemplate(i.subject, r)
	if err != nil {
		return err
	}

	b, err := integration.Marshal(r)
	if err != nil {
		return err
	}

	if err := i.conn.Publish(subject, b); err != nil {
		return errors.Wrap(err, "integration/nats: publish error")
	}

	logging.WithContext(ctx).WithField("subject", subject).Debug("integration/nats: record published")

	return nil
}

// Close flushes the pending messages and closes the connection.
func (i *Integration) Close() error {
	log.Info("integration/nats: closing integration")
	if err := i.conn.Flush(); err != nil {
		return errors.Wrap(err, "integration/nats: flush error")
	}
	i.conn.Close()
	return nil
}
