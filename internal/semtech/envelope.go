// Package semtech implements decoding of the Semtech packet-forwarder UDP
// envelope.
package semtech

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/brocaar/lorawan"
	"github.com/pkg/errors"

	"github.com/loralogger/lora-log-decoder/internal/codec"
)

// HeaderSize is the size of the fixed envelope header, including the
// gateway id.
const HeaderSize = 12

// Envelope represents a decoded packet-forwarder UDP envelope.
type Envelope struct {
	ProtocolVersion byte
	RandomToken     [2]byte
	Identifier      byte
	GatewayID       lorawan.EUI64

	// Payload is nil when the envelope does not carry a JSON payload.
	Payload *Payload
}

// PacketType returns the packet type of the identifier.
func (e Envelope) PacketType() PacketType {
	return ParsePacketType(e.Identifier)
}

// Decode decodes the given envelope bytes.
func Decode(b []byte) (Envelope, error) {
	var e Envelope

	if len(b) < HeaderSize {
		return Envelope{}, errors.Wrapf(codec.ErrTooShort, "semtech: at least %d bytes are expected, got %d", HeaderSize, len(b))
	}

	e.ProtocolVersion = b[0]
	copy(e.RandomToken[:], b[1:3])
	e.Identifier = b[3]
	// the gateway id is sent as-is, it is not little-endian encoded
	copy(e.GatewayID[:], b[4:12])

	if data := b[HeaderSize:]; len(data) != 0 {
		pl, err := decodePayload(data)
		if err != nil {
			return Envelope{}, err
		}
		e.Payload = pl
	}

	return e, nil
}

// DecodeBase64 decodes the given base64 encoded envelope.
func DecodeBase64(s string) (Envelope, error) {
	b, err := codec.DecodeBase64(s)
	if err != nil {
		return Envelope{}, errors.Wrap(err, "semtech")
	}
	return Decode(b)
}

// UnmarshalBinary decodes the envelope from its binary form. The envelope
// is left untouched on error.
func (e *Envelope) UnmarshalBinary(data []byte) error {
	out, err := Decode(data)
	if err != nil {
		return err
	}
	*e = out
	return nil
}

func decodePayload(data []byte) (*Payload, error) {
	if !utf8.Valid(data) {
		return nil, errors.Wrap(codec.ErrMalformedPayload, "semtech: payload is not valid utf-8")
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrapf(codec.ErrMalformedPayload, "semtech: %s", err)
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	return &Payload{raw: raw, value: v}, nil
}
