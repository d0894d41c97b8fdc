// Package test contains the helpers shared by the tests that need external
// services. These tests are skipped when the matching TEST_* environment
// variable is not set.
package test

import (
	"os"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/loralogger/lora-log-decoder/internal/config"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

// Environment variables holding the test service locations.
const (
	EnvRedisURL    = "TEST_REDIS_URL"
	EnvPostgresDSN = "TEST_POSTGRES_DSN"
	EnvMQTTServer  = "TEST_MQTT_SERVER"
	EnvAMQPURL     = "TEST_AMQP_URL"
	EnvNATSURL     = "TEST_NATS_URL"
)

// GetConfig returns the test configuration.
func GetConfig() config.Config {
	var c config.Config

	c.General.LogLevel = int(log.ErrorLevel)
	c.Output.Format = config.OutputText
	c.Output.StrictSingleRXPK = true

	c.Integration.Redis.URL = os.Getenv(EnvRedisURL)

	c.Integration.PostgreSQL.DSN = os.Getenv(EnvPostgresDSN)
	c.Integration.PostgreSQL.Automigrate = true
	c.Integration.PostgreSQL.MaxOpenConnections = 5

	c.Integration.MQTT.Server = os.Getenv(EnvMQTTServer)
	c.Integration.MQTT.CleanSession = true
	c.Integration.MQTT.TopicTemplate = "lora-log-decoder/gateway/{{ .GatewayID }}/frame"

	c.Integration.AMQP.URL = os.Getenv(EnvAMQPURL)
	c.Integration.AMQP.Exchange = "amq.topic"
	c.Integration.AMQP.RoutingKeyTemplate = "gateway.{{ .GatewayID }}.frame"

	c.Integration.NATS.URL = os.Getenv(EnvNATSURL)
	c.Integration.NATS.SubjectTemplate = "gateway.{{ .GatewayID }}.frame"

	return c
}

// RequireEnv skips the test when the given environment variable is not set.
func RequireEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s is not set", key)
	}
	return v
}
