// Package phypayload implements decoding of the LoRaWAN PHYPayload into
// its MAC header, frame header and MIC.
package phypayload

import (
	"encoding/binary"

	"github.com/brocaar/lorawan"
	"github.com/pkg/errors"

	"github.com/loralogger/lora-log-decoder/internal/codec"
)

const (
	mhdrSize = 1
	micSize  = 4

	// MinFHDRSize is the size of a frame header without FOpts.
	MinFHDRSize = 7

	// MaxFHDRSize is the size of a frame header carrying 15 FOpts bytes.
	MaxFHDRSize = MinFHDRSize + 15

	// MinSize is the minimum size of a PHYPayload.
	MinSize = mhdrSize + MinFHDRSize + micSize
)

// Frame represents a decoded PHYPayload.
type Frame struct {
	MACHeader  byte
	MACPayload []byte
	FCtrl      [2]byte
	FOptsLen   int
	FHDR       []byte
	DevAddr    lorawan.DevAddr
	MIC        lorawan.MIC
}

type options struct {
	legacyFHDRLength bool
}

// Option configures the decoder.
type Option func(*options)

// WithLegacyFHDRLength makes the decoder slice the frame header one byte
// past 7 + FOptsLen (clamped to the end of the MACPayload). This matches
// the output of the loralogger python tooling byte-for-byte.
func WithLegacyFHDRLength() Option {
	return func(o *options) {
		o.legacyFHDRLength = true
	}
}

// MHDR returns the MAC header.
func (f Frame) MHDR() lorawan.MHDR {
	var h lorawan.MHDR
	// this can't fail, the input is always a single byte
	_ = h.UnmarshalBinary([]byte{f.MACHeader})
	return h
}

// FHDRLen returns the frame header length as defined by FOptsLen.
func (f Frame) FHDRLen() int {
	return MinFHDRSize + f.FOptsLen
}

// FCnt returns the 16 least-significant bits of the frame counter.
func (f Frame) FCnt() uint16 {
	if len(f.MACPayload) < MinFHDRSize {
		return 0
	}
	return binary.LittleEndian.Uint16(f.MACPayload[5:7])
}

// FOpts returns the FOpts bytes of the frame header.
func (f Frame) FOpts() []byte {
	if len(f.MACPayload) < f.FHDRLen() {
		return nil
	}
	out := make([]byte, f.FOptsLen)
	copy(out, f.MACPayload[MinFHDRSize:f.FHDRLen()])
	return out
}

// Decode decodes the given PHYPayload bytes.
func Decode(b []byte, opts ...Option) (Frame, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if len(b) < MinSize {
		return Frame{}, errors.Wrapf(codec.ErrTooShort, "phypayload: at least %d bytes are expected, got %d", MinSize, len(b))
	}

	var f Frame
	f.MACHeader = b[0]
	copy(f.MIC[:], b[len(b)-micSize:])
	f.MACPayload = make([]byte, len(b)-mhdrSize-micSize)
	copy(f.MACPayload, b[mhdrSize:len(b)-micSize])

	copy(f.FCtrl[:], f.MACPayload[4:6])
	f.FOptsLen = int(f.MACPayload[4] & 0x0f)

	fhdrLen := f.FHDRLen()
	if fhdrLen > len(f.MACPayload) {
		return Frame{}, errors.Wrapf(codec.ErrTruncatedFrameHeader, "phypayload: frame header of %d bytes exceeds mac payload of %d bytes", fhdrLen, len(f.MACPayload))
	}

	end := fhdrLen
	if o.legacyFHDRLength && end < len(f.MACPayload) {
		end++
	}
	f.FHDR = make([]byte, end)
	copy(f.FHDR, f.MACPayload[:end])

	devAddr, err := DevAddrFromWire(f.FHDR[0:4])
	if err != nil {
		return Frame{}, err
	}
	f.DevAddr = devAddr

	return f, nil
}

// DecodeBase64 decodes the given base64 encoded PHYPayload.
func DecodeBase64(s string, opts ...Option) (Frame, error) {
	b, err := codec.DecodeBase64(s)
	if err != nil {
		return Frame{}, errors.Wrap(err, "phypayload")
	}
	return Decode(b, opts...)
}

// UnmarshalBinary decodes the frame from its binary form using the
// corrected frame header length. The frame is left untouched on error.
func (f *Frame) UnmarshalBinary(data []byte) error {
	out, err := Decode(data)
	if err != nil {
		return err
	}
	*f = out
	return nil
}
