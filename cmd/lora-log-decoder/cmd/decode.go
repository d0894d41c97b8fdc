package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/loralogger/lora-log-decoder/internal/config"
	"github.com/loralogger/lora-log-decoder/internal/models"
	"github.com/loralogger/lora-log-decoder/internal/phypayload"
	"github.com/loralogger/lora-log-decoder/internal/semtech"
)

var envelopeCmd = &cobra.Command{
	Use:     "envelope [base64]",
	Short:   "Decode a single base64 encoded packet-forwarder envelope",
	Example: "lora-log-decoder envelope AgABAgECAwQFBgcI",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := semtech.DecodeBase64(args[0])
		if err != nil {
			return errors.Wrap(err, "decode envelope error")
		}
		return printJSON(cmd, models.NewEnvelopeJSON(env))
	},
}

var frameCmd = &cobra.Command{
	Use:     "frame [base64]",
	Short:   "Decode a single base64 encoded LoRaWAN PHYPayload",
	Example: "lora-log-decoder frame QFMeASaAZkYBRXCQ7SU=",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []phypayload.Option
		if config.C.Decoder.LegacyFHDRLength {
			opts = append(opts, phypayload.WithLegacyFHDRLength())
		}

		f, err := phypayload.DecodeBase64(args[0], opts...)
		if err != nil {
			return errors.Wrap(err, "decode phypayload error")
		}
		return printJSON(cmd, models.NewPHYPayloadJSON(f))
	},
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal json error")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
