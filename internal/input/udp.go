package input

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// maxDatagramSize is the maximum UDP payload size.
const maxDatagramSize = 65507

// UDPSource passively listens for packet-forwarder datagrams. It never
// replies to the gateway.
type UDPSource struct {
	conn *net.UDPConn

	recordChan chan Record
	closed     chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewUDPSource starts listening on the given bind address.
func NewUDPSource(bind string) (*UDPSource, error) {
	addr, err := net.ResolveUDPAddr("udp", bind)
	if err != nil {
		return nil, errors.Wrap(err, "input/udp: resolve udp addr error")
	}

	log.WithField("bind", bind).Info("input/udp: starting udp listener")
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "input/udp: listen udp error")
	}

	s := UDPSource{
		conn:       conn,
		recordChan: make(chan Record),
		closed:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.readLoop()

	return &s, nil
}

// LocalAddr returns the address the listener is bound to.
func (s *UDPSource) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// RecordChan returns the record channel.
func (s *UDPSource) RecordChan() chan Record {
	return s.recordChan
}

// Close closes the listener.
func (s *UDPSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		log.Info("input/udp: closing udp listener")
		close(s.closed)
		err = s.conn.Close()
	})
	s.wg.Wait()
	return err
}

func (s *UDPSource) readLoop() {
	defer s.wg.Done()
	defer close(s.recordChan)

	buf := make([]byte, maxDatagramSize)
	var packetNo int
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			log.WithError(err).Error("input/udp: read from udp error")
			continue
		}
		packetNo++

		data := make([]byte, n)
		copy(data, buf[:n])
		inputRecordCounter(InputTypeUDP).Inc()

		select {
		case s.recordChan <- Record{
			Source:    addr.String(),
			Line:      packetNo,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Raw:       data,
		}:
		case <-s.closed:
			return
		}
	}
}
