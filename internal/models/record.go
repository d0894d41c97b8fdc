package models

import (
	"encoding/json"

	"github.com/brocaar/lorawan"
	"github.com/gofrs/uuid"

	"github.com/loralogger/lora-log-decoder/internal/codec"
	"github.com/loralogger/lora-log-decoder/internal/phypayload"
	"github.com/loralogger/lora-log-decoder/internal/semtech"
)

// Record contains a decoded uplink: the envelope it was received in, the
// rxpk element carrying it and the decoded PHYPayload.
type Record struct {
	ID        uuid.UUID
	Source    string
	Line      int
	Timestamp string
	Envelope  semtech.Envelope
	RXPKIndex int
	RXPK      semtech.RXPK
	Frame     phypayload.Frame
}

// RecordJSON is the JSON representation of a Record.
type RecordJSON struct {
	ID              uuid.UUID       `json:"id"`
	Source          string          `json:"source,omitempty"`
	Line            int             `json:"line,omitempty"`
	Timestamp       string          `json:"timestamp"`
	ProtocolVersion string          `json:"protocolVersion"`
	RandomToken     string          `json:"randomToken"`
	Identifier      string          `json:"identifier"`
	PacketType      string          `json:"packetType"`
	GatewayID       lorawan.EUI64   `json:"gatewayID"`
	RXPKIndex       int             `json:"rxpkIndex"`
	RXPK            json.RawMessage `json:"rxpk"`
	PHYPayload      PHYPayloadJSON  `json:"phyPayload"`
}

// PHYPayloadJSON is the JSON representation of a decoded PHYPayload.
type PHYPayloadJSON struct {
	MHDR       string          `json:"mhdr"`
	MType      lorawan.MType   `json:"mType"`
	Major      lorawan.Major   `json:"major"`
	MACPayload string          `json:"macPayload"`
	FHDR       string          `json:"fhdr"`
	FCtrl      string          `json:"fCtrl"`
	FOptsLen   int             `json:"fOptsLen"`
	FCnt       uint16          `json:"fCnt"`
	DevAddr    lorawan.DevAddr `json:"devAddr"`
	MIC        lorawan.MIC     `json:"mic"`
}

// EnvelopeJSON is the JSON representation of the envelope header.
type EnvelopeJSON struct {
	ProtocolVersion string          `json:"protocolVersion"`
	RandomToken     string          `json:"randomToken"`
	Identifier      string          `json:"identifier"`
	PacketType      string          `json:"packetType"`
	GatewayID       lorawan.EUI64   `json:"gatewayID"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelopeJSON returns the JSON representation of the given envelope.
func NewEnvelopeJSON(e semtech.Envelope) EnvelopeJSON {
	out := EnvelopeJSON{
		ProtocolVersion: codec.HexByte(e.ProtocolVersion),
		RandomToken:     codec.Hex(e.RandomToken[:]),
		Identifier:      codec.HexByte(e.Identifier),
		PacketType:      e.PacketType().String(),
		GatewayID:       e.GatewayID,
	}
	if e.Payload != nil {
		out.Payload = e.Payload.Raw()
	}
	return out
}

// NewPHYPayloadJSON returns the JSON representation of the given frame.
func NewPHYPayloadJSON(f phypayload.Frame) PHYPayloadJSON {
	mhdr := f.MHDR()

	return PHYPayloadJSON{
		MHDR:       codec.HexByte(f.MACHeader),
		MType:      mhdr.MType,
		Major:      mhdr.Major,
		MACPayload: codec.Hex(f.MACPayload),
		FHDR:       codec.Hex(f.FHDR),
		FCtrl:      codec.Hex(f.FCtrl[:]),
		FOptsLen:   f.FOptsLen,
		FCnt:       f.FCnt(),
		DevAddr:    f.DevAddr,
		MIC:        f.MIC,
	}
}

// JSON returns the JSON representation of the record, using the hex display
// rendering for all byte fields.
func (r Record) JSON() RecordJSON {
	rxpk := r.RXPK.Raw
	if len(rxpk) == 0 {
		rxpk, _ = json.Marshal(map[string]string{
			"data": r.RXPK.Data,
		})
	}

	env := NewEnvelopeJSON(r.Envelope)

	return RecordJSON{
		ID:              r.ID,
		Source:          r.Source,
		Line:            r.Line,
		Timestamp:       r.Timestamp,
		ProtocolVersion: env.ProtocolVersion,
		RandomToken:     env.RandomToken,
		Identifier:      env.Identifier,
		PacketType:      env.PacketType,
		GatewayID:       env.GatewayID,
		RXPKIndex:       r.RXPKIndex,
		RXPK:            rxpk,
		PHYPayload:      NewPHYPayloadJSON(r.Frame),
	}
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.JSON())
}
