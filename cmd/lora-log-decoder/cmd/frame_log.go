package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brocaar/lorawan"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/loralogger/lora-log-decoder/internal/config"
	"github.com/loralogger/lora-log-decoder/internal/framelog"
	"github.com/loralogger/lora-log-decoder/internal/storage"
)

var (
	frameLogGatewayID string
	frameLogDevAddr   string
)

var frameLogCmd = &cobra.Command{
	Use:   "frame-log",
	Short: "Tail the frame log of a gateway or DevAddr",
	RunE:  runFrameLog,
}

func init() {
	frameLogCmd.Flags().StringVar(&frameLogGatewayID, "gateway-id", "", "gateway id (hex encoded)")
	frameLogCmd.Flags().StringVar(&frameLogDevAddr, "dev-addr", "", "DevAddr (hex encoded)")
}

func runFrameLog(cmd *cobra.Command, args []string) error {
	if (frameLogGatewayID == "") == (frameLogDevAddr == "") {
		return errors.New("exactly one of --gateway-id or --dev-addr must be given")
	}

	if err := setLogLevel(); err != nil {
		return err
	}

	if err := storage.SetupRedis(config.C); err != nil {
		return errors.Wrap(err, "setup redis error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		log.WithField("signal", <-sigChan).Info("signal received")
		cancel()
	}()

	frameLogChan := make(chan framelog.FrameLog)
	errChan := make(chan error, 1)

	go func() {
		if frameLogGatewayID != "" {
			var gatewayID lorawan.EUI64
			if err := gatewayID.UnmarshalText([]byte(frameLogGatewayID)); err != nil {
				errChan <- errors.Wrap(err, "decode gateway id error")
				return
			}
			errChan <- framelog.GetFrameLogForGateway(ctx, gatewayID, frameLogChan)
			return
		}

		var devAddr lorawan.DevAddr
		if err := devAddr.UnmarshalText([]byte(frameLogDevAddr)); err != nil {
			errChan <- errors.Wrap(err, "decode DevAddr error")
			return
		}
		errChan <- framelog.GetFrameLogForDevAddr(ctx, devAddr, frameLogChan)
	}()

	for {
		select {
		case fl := <-frameLogChan:
			fmt.Fprintln(cmd.OutOrStdout(), string(fl.Record))
		case err := <-errChan:
			return err
		}
	}
}
