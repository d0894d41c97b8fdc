package config

import (
	"time"
)

// Version defines the lora-log-decoder version.
var Version string

// Config defines the configuration structure.
type Config struct {
	General struct {
		LogLevel    int  `mapstructure:"log_level"`
		LogToSyslog bool `mapstructure:"log_to_syslog"`
	} `mapstructure:"general"`

	Decoder struct {
		LegacyFHDRLength bool `mapstructure:"legacy_fhdr_length"`
	} `mapstructure:"decoder"`

	Input struct {
		Type    string `mapstructure:"type"`
		Path    string `mapstructure:"path"`
		UDPBind string `mapstructure:"udp_bind"`
		UDPPort int    `mapstructure:"udp_port"`
	} `mapstructure:"input"`

	Output struct {
		Format           string `mapstructure:"format"`
		StrictSingleRXPK bool   `mapstructure:"strict_single_rxpk"`
	} `mapstructure:"output"`

	Integration struct {
		Enabled []string `mapstructure:"enabled"`

		MQTT struct {
			Server        string `mapstructure:"server"`
			Username      string `mapstructure:"username"`
			Password      string `mapstructure:"password"`
			QOS           uint8  `mapstructure:"qos"`
			CleanSession  bool   `mapstructure:"clean_session"`
			ClientID      string `mapstructure:"client_id"`
			CACert        string `mapstructure:"ca_cert"`
			TLSCert       string `mapstructure:"tls_cert"`
			TLSKey        string `mapstructure:"tls_key"`
			TopicTemplate string `mapstructure:"topic_template"`
		} `mapstructure:"mqtt"`

		AMQP struct {
			URL                string `mapstructure:"url"`
			Exchange           string `mapstructure:"exchange"`
			RoutingKeyTemplate string `mapstructure:"routing_key_template"`
		} `mapstructure:"amqp"`

		NATS struct {
			URL             string        `mapstructure:"url"`
			Username        string        `mapstructure:"username"`
			Password        string        `mapstructure:"password"`
			SubjectTemplate string        `mapstructure:"subject_template"`
			ReconnectWait   time.Duration `mapstructure:"reconnect_wait"`
			MaxReconnects   int           `mapstructure:"max_reconnects"`
		} `mapstructure:"nats"`

		Redis struct {
			Servers    []string `mapstructure:"servers"`
			URL        string   `mapstructure:"url"`
			Cluster    bool     `mapstructure:"cluster"`
			MasterName string   `mapstructure:"master_name"`
			PoolSize   int      `mapstructure:"pool_size"`
			Password   string   `mapstructure:"password"`
			Database   int      `mapstructure:"database"`
			TLSEnabled bool     `mapstructure:"tls_enabled"`
		} `mapstructure:"redis"`

		PostgreSQL struct {
			DSN                string `mapstructure:"dsn"`
			Automigrate        bool   `mapstructure:"automigrate"`
			MaxOpenConnections int    `mapstructure:"max_open_connections"`
			MaxIdleConnections int    `mapstructure:"max_idle_connections"`
		} `mapstructure:"postgresql"`
	} `mapstructure:"integration"`

	Monitoring struct {
		Bind                string `mapstructure:"bind"`
		PrometheusEndpoint  bool   `mapstructure:"prometheus_endpoint"`
		HealthcheckEndpoint bool   `mapstructure:"healthcheck_endpoint"`
	} `mapstructure:"monitoring"`
}

// Input types.
const (
	InputLog  = "log"
	InputPCAP = "pcap"
	InputUDP  = "udp"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Integration names.
const (
	IntegrationMQTT       = "mqtt"
	IntegrationAMQP       = "amqp"
	IntegrationNATS       = "nats"
	IntegrationRedis      = "redis"
	IntegrationPostgreSQL = "postgresql"
)

// C holds the global configuration.
var C Config

// IntegrationEnabled returns true when the given integration is enabled.
func (c Config) IntegrationEnabled(name string) bool {
	for _, n := range c.Integration.Enabled {
		if n == name {
			return true
		}
	}
	return false
}
