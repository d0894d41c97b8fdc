package semtech

// PacketType defines the Semtech packet-forwarder identifier.
type PacketType byte

// Available packet types.
const (
	PushData PacketType = iota
	PushACK
	PullData
	PullResp
	PullACK
	TXACK
)

// UnknownPacketType is returned by Envelope.PacketType for identifiers
// outside of the protocol table.
const UnknownPacketType PacketType = 0xff

// PayloadPresence defines if a packet type carries a JSON payload.
type PayloadPresence int

// Payload presence values.
const (
	PayloadNone PayloadPresence = iota
	PayloadRequired
	PayloadOptional
)

// ParsePacketType maps a raw identifier byte to its PacketType.
func ParsePacketType(b byte) PacketType {
	if PacketType(b) > TXACK {
		return UnknownPacketType
	}
	return PacketType(b)
}

// Known returns true when the packet type is part of the protocol table.
func (t PacketType) Known() bool {
	return t <= TXACK
}

// PayloadPresence returns if packets of this type carry a JSON payload.
func (t PacketType) PayloadPresence() PayloadPresence {
	switch t {
	case PushData, PullResp:
		return PayloadRequired
	case TXACK:
		return PayloadOptional
	default:
		return PayloadNone
	}
}

// String implements fmt.Stringer.
func (t PacketType) String() string {
	switch t {
	case PushData:
		return "PUSH_DATA"
	case PushACK:
		return "PUSH_ACK"
	case PullData:
		return "PULL_DATA"
	case PullResp:
		return "PULL_RESP"
	case PullACK:
		return "PULL_ACK"
	case TXACK:
		return "TX_ACK"
	default:
		return "UNKNOWN"
	}
}

