package codec

import (
	"encoding/base64"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// DecodeBase64 decodes standard base64 text. Padding is optional and
// whitespace (e.g. a trailing newline from a log line) is ignored.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	enc := base64.StdEncoding
	if len(s)%4 != 0 {
		enc = base64.RawStdEncoding
	}

	b, err := enc.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidEncoding, "%s", err)
	}
	return b, nil
}
