// Package mqtt implements an integration publishing the decoded records to
// an MQTT broker.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"text/template"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/loralogger/lora-log-decoder/internal/config"
	"github.com/loralogger/lora-log-decoder/internal/integration"
	"github.com/loralogger/lora-log-decoder/internal/logging"
	"github.com/loralogger/lora-log-decoder/internal/models"
)

const connectRetries = 5

// Integration implements the MQTT integration.
type Integration struct {
	conn  paho.Client
	qos   uint8
	topic *template.Template
}

// New creates a new MQTT integration.
func New(c config.Config) (*Integration, error) {
	conf := c.Integration.MQTT

	topic, err := integration.ParseTemplate("topic", conf.TopicTemplate)
	if err != nil {
		return nil, err
	}

	i := Integration{
		qos:   conf.QOS,
		topic: topic,
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(conf.Server)
	opts.SetUsername(conf.Username)
	opts.SetPassword(conf.Password)
	opts.SetCleanSession(conf.CleanSession)
	opts.SetClientID(conf.ClientID)
	opts.SetOnConnectHandler(i.onConnected)
	opts.SetConnectionLostHandler(i.onConnectionLost)

	tlsconfig, err := newTLSConfig(conf.CACert, conf.TLSCert, conf.TLSKey)
	if err != nil {
		return nil, errors.Wrap(err, "integration/mqtt: load tls configuration error")
	}
	if tlsconfig != nil {
		opts.SetTLSConfig(tlsconfig)
	}

	log.WithField("server", conf.Server).Info("integration/mqtt: connecting to mqtt broker")
	i.conn = paho.NewClient(opts)
	for n := 0; ; n++ {
		token := i.conn.Connect()
		if token.Wait() && token.Error() == nil {
			break
		}
		if n >= connectRetries {
			return nil, errors.Wrap(token.Error(), "integration/mqtt: connect error")
		}
		log.WithError(token.Error()).Error("integration/mqtt: connecting to mqtt broker failed, will retry in 2s")
		time.Sleep(2 * time.Second)
	}

	return &i, nil
}

// HandleRecord publishes the given record.
func (i *Integration) HandleRecord(ctx context.Context, r models.Record) error {
	topic, err := integration.ExecuteTemplate(i.topic, r)
	if err != nil {
		return err
	}

	b, err := integration.Marshal(r)
	if err != nil {
		return err
	}

	logging.WithContext(ctx).WithFields(log.Fields{
		"topic": topic,
		"qos":   i.qos,
	}).Debug("integration/mqtt: publishing record")

	if token := i.conn.Publish(topic, i.qos, false, b); token.Wait() && token.Error() != nil {
		return errors.Wrap(token.Error(), "integration/mqtt: publish error")
	}

	mqttPublishCounter().Inc()
	return nil
}

// Close disconnects from the broker.
func (i *Integration) Close() error {
	log.Info("integration/mqtt: closing integration")
	i.conn.Disconnect(250)
	return nil
}

func (i *Integration) onConnected(c paho.Client) {
	mqttConnectCounter().Inc()
	log.Info("integration/mqtt: connected to mqtt broker")
}

func (i *Integration) onConnectionLost(c paho.Client, reason error) {
	mqttDisconnectCounter().Inc()
	log.WithError(reason).Error("integration/mqtt: mqtt connection error")
}

func newTLSConfig(cafile, certFile, certKeyFile string) (*tls.Config, error) {
	if cafile == "" && certFile == "" && certKeyFile == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{}

	if cafile != "" {
		cacert, err := os.ReadFile(cafile)
		if err != nil {
			return nil, errors.Wrap(err, "read ca certificate error")
		}
		certpool := x509.NewCertPool()
		if !certpool.AppendCertsFromPEM(cacert) {
			return nil, errors.Errorf("no certificates found in %s", cafile)
		}
		tlsConfig.RootCAs = certpool
	}

	if certFile != "" && certKeyFile != "" {
		kp, err := tls.LoadX509KeyPair(certFile, certKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load tls key-pair error")
		}
		tlsConfig.Certificates = []tls.Certificate{kp}
	}

	return tlsConfig, nil
}
