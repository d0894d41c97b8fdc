package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegrationEnabled(t *testing.T) {
	assert := require.New(t)

	var c Config
	assert.False(c.IntegrationEnabled(IntegrationMQTT))

	c.Integration.Enabled = []string{IntegrationMQTT, IntegrationPostgreSQL}
	assert.True(c.IntegrationEnabled(IntegrationMQTT))
	assert.True(c.IntegrationEnabled(IntegrationPostgreSQL))
	assert.False(c.IntegrationEnabled(IntegrationRedis))
}
