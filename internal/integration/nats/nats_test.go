package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brocaar/lorawan"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/loralogger/lora-log-decoder/internal/models"
	"github.com/loralogger/lora-log-decoder/internal/phypayload"
	"github.com/loralogger/lora-log-decoder/internal/semtech"
	"github.com/loralogger/lora-log-decoder/internal/test"
)

func TestIntegration(t *testing.T) {
	test.RequireEnv(t, test.EnvNATSURL)
	assert := require.New(t)
	conf := test.GetConfig()

	nc, err := nats.Connect(conf.Integration.NATS.URL)
	assert.NoError(err)
	defer nc.Close()

	sub, err := nc.SubscribeSync("gateway.*.frame")
	assert.NoError(err)
	assert.NoError(nc.Flush())

	i, err := New(conf)
	assert.NoError(err)

	frame, err := phypayload.DecodeBase64("QFMeASaAZkYBRXCQ7SU=")
	assert.NoError(err)

	rec := models.Record{
		Envelope: semtech.Envelope{
			GatewayID: lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8},
		},
		Frame: frame,
	}
	assert.NoError(i.HandleRecord(context.Background(), rec))
	assert.NoError(i.Close())

	msg, err := sub.NextMsg(5 * time.Second)
	assert.NoError(err)
	assert.Equal("gateway.0102030405060708.frame", msg.Subject)

	var out map[string]interface{}
	assert.NoError(json.Unmarshal(msg.Data, &out))
	assert.Equal("26011e53", out["phyPayload"].(map[string]interface{})["devAddr"])
}

func TestNewInvalidTemplate(t *testing.T) {
	conf := test.GetConfig()
	conf.Integration.NATS.SubjectTemplate = "gateway.{{ .GatewayID"

	_, err := New(conf)
	require.Error(t, err)
}
