// Package input implements the sources of Semtech envelopes: loralogger
// log files, pcap captures and a passive UDP listener.
package input

// Record holds a single envelope as read from a source. Either Base64 or
// Raw is set.
type Record struct {
	// Source identifies where the record was read from (file name or
	// remote address).
	Source string

	// Line is the line (log) or packet (pcap) number, starting at 1.
	Line int

	Timestamp string

	// GatewayID contains the gateway id as written in the log file. It is
	// informative only, the envelope carries the same id.
	GatewayID string

	Base64 string
	Raw    []byte
}

// Source is the interface of an envelope source.
type Source interface {
	// RecordChan returns the channel on which records are sent. The channel
	// is closed when the source is exhausted or closed.
	RecordChan() chan Record

	// Close closes the source.
	Close() error
}

// Source types, used as metric label.
const (
	InputTypeLog  = "log"
	InputTypePCAP = "pcap"
	InputTypeUDP  = "udp"
)
