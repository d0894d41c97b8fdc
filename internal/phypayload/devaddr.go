package phypayload

import (
	"github.com/brocaar/lorawan"
	"github.com/pkg/errors"

	"github.com/loralogger/lora-log-decoder/internal/codec"
)

// DevAddrFromWire converts the 4 DevAddr bytes as transmitted (little
// endian) into the DevAddr in big-endian display order.
func DevAddrFromWire(b []byte) (lorawan.DevAddr, error) {
	var a lorawan.DevAddr
	if len(b) != len(a) {
		return a, errors.Wrapf(codec.ErrTooShort, "phypayload: %d devaddr bytes are expected, got %d", len(a), len(b))
	}
	if err := a.UnmarshalBinary(b); err != nil {
		return a, errors.Wrap(err, "phypayload: unmarshal devaddr error")
	}
	return a, nil
}

