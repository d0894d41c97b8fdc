package input

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultUDPPort is the default port of the Semtech packet-forwarder.
const DefaultUDPPort = 1700

var pcapNGMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

type packetDataReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// PCAPSource reads Semtech UDP datagrams from a pcap or pcapng capture.
type PCAPSource struct {
	name   string
	port   uint16
	r      packetDataReader
	closer io.Closer

	recordChan chan Record
	closed     chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewPCAPSource opens the given capture file. Only UDP datagrams from or
// to the given port are emitted.
func NewPCAPSource(path string, port int) (*PCAPSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "input/pcap: open capture file error")
	}

	s, err := NewPCAPReaderSource(path, f, port)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// NewPCAPReaderSource reads the capture from the given reader.
func NewPCAPReaderSource(name string, r io.Reader, port int) (*PCAPSource, error) {
	if port <= 0 || port > 0xffff {
		return nil, errors.Errorf("input/pcap: invalid udp port %d", port)
	}

	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, errors.Wrap(err, "input/pcap: read capture header error")
	}

	var pr packetDataReader
	if bytes.Equal(magic, pcapNGMagic) {
		pr, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		pr, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, errors.Wrap(err, "input/pcap: new capture reader error")
	}

	s := PCAPSource{
		name:       name,
		port:       uint16(port),
		r:          pr,
		recordChan: make(chan Record),
		closed:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.readLoop()

	return &s, nil
}

// RecordChan returns the record channel.
func (s *PCAPSource) RecordChan() chan Record {
	return s.recordChan
}

// Close stops reading and closes the capture file.
func (s *PCAPSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *PCAPSource) readLoop() {
	defer s.wg.Done()
	defer close(s.recordChan)

	var packetNo int
	for {
		data, ci, err := s.r.ReadPacketData()
		if err != nil {
			if err != io.EOF {
				log.WithError(err).WithField("file", s.name).Error("input/pcap: read packet error")
			}
			return
		}
		packetNo++

		payload, ok := s.semtechPayload(data)
		if !ok {
			continue
		}

		inputRecordCounter(InputTypePCAP).Inc()

		select {
		case s.recordChan <- Record{
			Source:    s.name,
			Line:      packetNo,
			Timestamp: ci.Timestamp.UTC().Format(time.RFC3339Nano),
			Raw:       payload,
		}:
		case <-s.closed:
			return
		}
	}
}

func (s *PCAPSource) semtechPayload(data []byte) ([]byte, bool) {
	packet := gopacket.NewPacket(data, s.r.LinkType(), gopacket.Default)
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil, false
	}

	udp, ok := udpLayer.(*layers.UDP)
	if !ok {
		return nil, false
	}

	if uint16(udp.SrcPort) != s.port && uint16(udp.DstPort) != s.port {
		return nil, false
	}

	out := make([]byte, len(udp.Payload))
	copy(out, udp.Payload)
	return out, true
}
