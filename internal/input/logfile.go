package input

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// maxLineSize is large enough for the base64 encoding of the largest UDP
// datagram.
const maxLineSize = 128 * 1024

// LogFileSource reads loralogger log lines in the form
// timestamp,gateway_id,base64_envelope.
type LogFileSource struct {
	name   string
	r      io.Reader
	closer io.Closer

	recordChan chan Record
	closed     chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewLogFileSource opens the given log file.
func NewLogFileSource(path string) (*LogFileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "input/log: open log file error")
	}

	s := NewLogReaderSource(path, f)
	s.closer = f
	return s, nil
}

// NewLogReaderSource reads log lines from the given reader.
func NewLogReaderSource(name string, r io.Reader) *LogFileSource {
	s := LogFileSource{
		name:       name,
		r:          r,
		recordChan: make(chan Record),
		closed:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.readLoop()

	return &s
}

// RecordChan returns the record channel.
func (s *LogFileSource) RecordChan() chan Record {
	return s.recordChan
}

// Close stops reading and closes the underlying file.
func (s *LogFileSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *LogFileSource) readLoop() {
	defer s.wg.Done()
	defer close(s.recordChan)

	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lineNo int
	for scanner.Scan() {
		lineNo++

		rec, ok := parseLogLine(scanner.Text())
		if !ok {
			if strings.TrimSpace(scanner.Text()) != "" {
				inputMalformedLineCounter(InputTypeLog).Inc()
				log.WithFields(log.Fields{
					"file": s.name,
					"line": lineNo,
				}).Warning("input/log: skipping line, expected timestamp,gateway_id,data")
			}
			continue
		}

		rec.Source = s.name
		rec.Line = lineNo
		inputRecordCounter(InputTypeLog).Inc()

		select {
		case s.recordChan <- rec:
		case <-s.closed:
			return
		}
	}

	if err := scanner.Err(); err != nil {
		log.WithError(err).WithField("file", s.name).Error("input/log: read log file error")
	}
}

// parseLogLine splits a single log line. Fields beyond the third are
// ignored.
func parseLogLine(line string) (Record, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return Record{}, false
	}

	return Record{
		Timestamp: strings.TrimSpace(parts[0]),
		GatewayID: strings.TrimSpace(parts[1]),
		Base64:    strings.TrimSpace(parts[2]),
	}, true
}
