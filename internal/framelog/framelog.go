// Package framelog publishes the decoded frames to Redis pub/sub keys per
// gateway and per DevAddr, so that they can be tailed live.
package framelog

import (
	"context"
	"encoding/json"

	"github.com/brocaar/lorawan"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/loralogger/lora-log-decoder/internal/models"
	"github.com/loralogger/lora-log-decoder/internal/storage"
)

const (
	gatewayFrameLogPubSubKeyTempl = "lora:decoder:gw:%s:frame"
	devAddrFrameLogPubSubKeyTempl = "lora:decoder:devaddr:%s:frame"
)

// FrameLog contains a single logged frame.
type FrameLog struct {
	// Key is the pub/sub key the frame was received on.
	Key string

	// Record holds the JSON representation of the decoded record.
	Record json.RawMessage
}

// LogFrame logs the given record to its gateway and DevAddr pub/sub keys.
func LogFrame(ctx context.Context, r models.Record) error {
	client := storage.RedisClient()
	if client == nil {
		return storage.ErrNotConfigured
	}

	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "framelog: marshal json error")
	}

	gwKey := storage.GetRedisKey(gatewayFrameLogPubSubKeyTempl, r.Envelope.GatewayID)
	devAddrKey := storage.GetRedisKey(devAddrFrameLogPubSubKeyTempl, r.Frame.DevAddr)

	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, gwKey, b)
		pipe.Publish(ctx, devAddrKey, b)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "framelog: publish frame error")
	}

	return nil
}

// GetFrameLogForGateway subscribes to the frame log of the given gateway
// and sends the frames to the given channel until ctx is cancelled.
func GetFrameLogForGateway(ctx context.Context, gatewayID lorawan.EUI64, frameLogChan chan FrameLog) error {
	return getFrameLogs(ctx, storage.GetRedisKey(gatewayFrameLogPubSubKeyTempl, gatewayID), frameLogChan)
}

// GetFrameLogForDevAddr subscribes to the frame log of the given DevAddr
// and sends the frames to the given channel until ctx is cancelled.
func GetFrameLogForDevAddr(ctx context.Context, devAddr lorawan.DevAddr, frameLogChan chan FrameLog) error {
	return getFrameLogs(ctx, storage.GetRedisKey(devAddrFrameLogPubSubKeyTempl, devAddr), frameLogChan)
}

func getFrameLogs(ctx context.Context, key string, frameLogChan chan FrameLog) error {
	client := storage.RedisClient()
	if client == nil {
		return storage.ErrNotConfigured
	}

	sub := client.Subscribe(ctx, key)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(err, "framelog: subscribe error")
	}

	log.WithField("key", key).Debug("framelog: subscribed to frame log")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			fl := FrameLog{
				Key:    msg.Channel,
				Record: json.RawMessage(msg.Payload),
			}

			select {
			case frameLogChan <- fl:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Handler publishes every handled record to the frame log.
type Handler struct{}

// HandleRecord logs the given record.
func (Handler) HandleRecord(ctx context.Context, r models.Record) error {
	return LogFrame(ctx, r)
}

// Close implements integration.Handler.
func (Handler) Close() error {
	return nil
}
