package processor

import (
	"github.com/pkg/errors"

	"github.com/loralogger/lora-log-decoder/internal/codec"
)

// Errors returned when a PUSH_DATA envelope does not carry exactly one
// rxpk element.
var (
	ErrNoRXPK       = errors.New("no rxpk element")
	ErrMultipleRXPK = errors.New("multiple rxpk elements")
)

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNoRXPK):
		return "no_rxpk"
	case errors.Is(err, ErrMultipleRXPK):
		return "multiple_rxpk"
	default:
		return codec.Kind(err)
	}
}
