package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/loralogger/lora-log-decoder/internal/config"
	"github.com/loralogger/lora-log-decoder/internal/framelog"
	"github.com/loralogger/lora-log-decoder/internal/input"
	"github.com/loralogger/lora-log-decoder/internal/integration"
	"github.com/loralogger/lora-log-decoder/internal/integration/amqp"
	"github.com/loralogger/lora-log-decoder/internal/integration/mqtt"
	"github.com/loralogger/lora-log-decoder/internal/integration/nats"
	"github.com/loralogger/lora-log-decoder/internal/monitoring"
	"github.com/loralogger/lora-log-decoder/internal/processor"
	"github.com/loralogger/lora-log-decoder/internal/report"
	"github.com/loralogger/lora-log-decoder/internal/storage"
)

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		config.C.Input.Path = args[0]
	}

	var server *processor.Server
	var integrations integration.Handlers

	tasks := []func() error{
		setLogLevel,
		setSyslog,
		printStartMessage,
		setupMonitoring,
		setupStorage,
		setupIntegrations(&integrations),
		startProcessor(&server, &integrations),
	}

	for _, t := range tasks {
		if err := t(); err != nil {
			log.Fatal(err)
		}
	}

	drained := make(chan struct{})
	go func() {
		server.Wait()
		close(drained)
	}()

	sigChan := make(chan os.Signal, 1)
	exitChan := make(chan struct{})
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-drained:
		log.Info("input source drained")
		if err := server.Stop(); err != nil {
			return err
		}
	case s := <-sigChan:
		log.WithField("signal", s).Info("signal received")
		go func() {
			log.Warning("stopping lora-log-decoder")
			if err := server.Stop(); err != nil {
				log.Fatal(err)
			}
			exitChan <- struct{}{}
		}()
		select {
		case <-exitChan:
		case s := <-sigChan:
			log.WithField("signal", s).Info("signal received, stopping immediately")
		}
	}

	if err := integrations.Close(); err != nil {
		return errors.Wrap(err, "close integrations error")
	}

	return nil
}

func setLogLevel() error {
	log.SetLevel(log.Level(uint8(config.C.General.LogLevel)))
	return nil
}

func printStartMessage() error {
	log.WithFields(log.Fields{
		"version": version,
		"input":   config.C.Input.Type,
		"format":  config.C.Output.Format,
	}).Info("starting lora-log-decoder")
	return nil
}

func setupMonitoring() error {
	if err := monitoring.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup monitoring error")
	}
	return nil
}

func setupStorage() error {
	if err := storage.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup storage error")
	}
	return nil
}

func setupIntegrations(out *integration.Handlers) func() error {
	return func() error {
		for _, name := range config.C.Integration.Enabled {
			var h integration.Handler
			var err error

			switch name {
			case config.IntegrationMQTT:
				h, err = mqtt.New(config.C)
			case config.IntegrationAMQP:
				h, err = amqp.New(config.C)
			case config.IntegrationNATS:
				h, err = nats.New(config.C)
			case config.IntegrationRedis:
				h = framelog.Handler{}
			case config.IntegrationPostgreSQL:
				h = storage.Handler{}
			default:
				return errors.Errorf("unknown integration: %s", name)
			}
			if err != nil {
				return errors.Wrapf(err, "setup %s integration error", name)
			}

			log.WithField("integration", name).Info("integration enabled")
			*out = append(*out, h)
		}
		return nil
	}
}

func startProcessor(server **processor.Server, integrations *integration.Handlers) func() error {
	return func() error {
		src, err := newSource(config.C)
		if err != nil {
			return errors.Wrap(err, "setup input source error")
		}

		w, err := report.NewWriter(os.Stdout, config.C.Output.Format)
		if err != nil {
			return errors.Wrap(err, "setup output error")
		}

		*server = processor.NewServer(src, processor.Config{
			LegacyFHDRLength: config.C.Decoder.LegacyFHDRLength,
			StrictSingleRXPK: config.C.Output.StrictSingleRXPK,
		}, w, *integrations)

		if err := (*server).Start(); err != nil {
			return errors.Wrap(err, "start processor error")
		}
		return nil
	}
}

func newSource(c config.Config) (input.Source, error) {
	switch c.Input.Type {
	case config.InputLog:
		return input.NewLogFileSource(c.Input.Path)
	case config.InputPCAP:
		return input.NewPCAPSource(c.Input.Path, c.Input.UDPPort)
	case config.InputUDP:
		return input.NewUDPSource(c.Input.UDPBind)
	default:
		return nil, errors.Errorf("unknown input type: %s", c.Input.Type)
	}
}
