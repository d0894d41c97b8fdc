package amqp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brocaar/lorawan"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/loralogger/lora-log-decoder/internal/models"
	"github.com/loralogger/lora-log-decoder/internal/phypayload"
	"github.com/loralogger/lora-log-decoder/internal/semtech"
	"github.com/loralogger/lora-log-decoder/internal/test"
)

type IntegrationTestSuite struct {
	suite.Suite

	integration *Integration
	amqpConn    *amqp.Connection
	amqpChan    *amqp.Channel
	deliveries  <-chan amqp.Delivery
}

func (ts *IntegrationTestSuite) SetupSuite() {
	assert := require.New(ts.T())
	conf := test.GetConfig()

	var err error
	ts.amqpConn, err = amqp.Dial(conf.Integration.AMQP.URL)
	assert.NoError(err)

	ts.amqpChan, err = ts.amqpConn.Channel()
	assert.NoError(err)

	q, err := ts.amqpChan.QueueDeclare("", false, true, true, false, nil)
	assert.NoError(err)
	assert.NoError(ts.amqpChan.QueueBind(q.Name, "gateway.*.frame", conf.Integration.AMQP.Exchange, false, nil))

	ts.deliveries, err = ts.amqpChan.Consume(q.Name, "", true, true, false, false, nil)
	assert.NoError(err)

	ts.integration, err = New(conf)
	assert.NoError(err)
}

func (ts *IntegrationTestSuite) TearDownSuite() {
	assert := require.New(ts.T())
	assert.NoError(ts.integration.Close())
	assert.NoError(ts.amqpConn.Close())
}

func (ts *IntegrationTestSuite) TestHandleRecord() {
	assert := require.New(ts.T())

	frame, err := phypayload.DecodeBase64("QFMeASaAZkYBRXCQ7SU=")
	assert.NoError(err)

	rec := models.Record{
		Envelope: semtech.Envelope{
			GatewayID: lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8},
		},
		Frame: frame,
	}
	assert.NoError(ts.integration.HandleRecord(context.Background(), rec))

	select {
	case d := <-ts.deliveries:
		assert.Equal("gateway.0102030405060708.frame", d.RoutingKey)
		assert.Equal("application/json", d.ContentType)

		var out map[string]interface{}
		assert.NoError(json.Unmarshal(d.Body, &out))
		assert.Equal("0102030405060708", out["gatewayID"])
	case <-time.After(5 * time.Second):
		ts.T().Fatal("timeout waiting for delivery")
	}
}

func (ts *IntegrationTestSuite) TestChannelPool() {
	assert := require.New(ts.T())

	p, err := newChannelPool(2, test.GetConfig().Integration.AMQP.URL)
	assert.NoError(err)
	assert.Len(p.chans, 2)

	a, err := p.get()
	assert.NoError(err)
	b, err := p.get()
	assert.NoError(err)
	c, err := p.get()
	assert.NoError(err)
	assert.Len(p.chans, 0)

	assert.NoError(a.release())
	assert.NoError(b.release())
	assert.NoError(c.release())
	assert.Len(p.chans, 2)

	d, err := p.get()
	assert.NoError(err)
	d.markUnusable()
	assert.NoError(d.release())
	assert.Len(p.chans, 1)

	assert.NoError(p.close())
	_, err = p.get()
	assert.Equal(errPoolClosed, err)
}

func TestIntegration(t *testing.T) {
	test.RequireEnv(t, test.EnvAMQPURL)
	suite.Run(t, new(IntegrationTestSuite))
}
