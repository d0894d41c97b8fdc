// Package processor decodes the records read from an input source and
// hands the decoded uplinks to the configured handlers.
package processor

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/loralogger/lora-log-decoder/internal/codec"
	"github.com/loralogger/lora-log-decoder/internal/input"
	"github.com/loralogger/lora-log-decoder/internal/logging"
	"github.com/loralogger/lora-log-decoder/internal/models"
	"github.com/loralogger/lora-log-decoder/internal/phypayload"
	"github.com/loralogger/lora-log-decoder/internal/semtech"
)

// Handler is implemented by everything consuming decoded records.
type Handler interface {
	HandleRecord(ctx context.Context, r models.Record) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, r models.Record) error

// HandleRecord calls f(ctx, r).
func (f HandlerFunc) HandleRecord(ctx context.Context, r models.Record) error {
	return f(ctx, r)
}

// Config holds the processor configuration.
type Config struct {
	// LegacyFHDRLength enables the one byte longer FHDR slicing.
	LegacyFHDRLength bool

	// StrictSingleRXPK rejects PUSH_DATA envelopes not carrying exactly one
	// rxpk element. When false, every element is processed.
	StrictSingleRXPK bool
}

// Server consumes the records of a source.
type Server struct {
	wg       sync.WaitGroup
	src      input.Source
	handlers []Handler
	config   Config
}

// NewServer creates a new server.
func NewServer(src input.Source, conf Config, handlers ...Handler) *Server {
	return &Server{
		src:      src,
		handlers: handlers,
		config:   conf,
	}
}

// Start starts the server.
func (s *Server) Start() error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.handleRecords()
	}()
	return nil
}

// Wait blocks until the source has been drained.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Stop closes the source and waits for the pending records to be handled.
func (s *Server) Stop() error {
	if err := s.src.Close(); err != nil {
		return errors.Wrap(err, "close input source error")
	}
	log.Info("processor: waiting for pending records to complete")
	s.wg.Wait()
	return nil
}

// handleRecords handles the records sequentially so that the output keeps
// the order of the input.
func (s *Server) handleRecords() {
	for r := range s.src.RecordChan() {
		ctx, _, err := logging.NewContext(context.Background())
		if err != nil {
			log.WithError(err).Error("processor: new context error")
			continue
		}

		if err := s.HandleRecord(ctx, r); err != nil {
			kind := errorKind(err)
			decodeErrorCounter(kind).Inc()
			logging.WithContext(ctx).WithFields(log.Fields{
				"source": r.Source,
				"line":   r.Line,
				"kind":   kind,
			}).WithError(err).Error("processor: handle record error")
		}
	}
}

// HandleRecord decodes a single record and calls the handlers for every
// decoded uplink. Handler errors are logged, decode errors are returned.
func (s *Server) HandleRecord(ctx context.Context, r input.Record) error {
	records, err := s.Decode(ctx, r)
	if err != nil {
		return err
	}

	for _, rec := range records {
		frameCounter(rec.Frame.MHDR().MType.String()).Inc()

		for _, h := range s.handlers {
			if err := h.HandleRecord(ctx, rec); err != nil {
				handlerErrorCounter().Inc()
				logging.WithContext(ctx).WithError(err).Error("processor: handler error")
			}
		}
	}

	return nil
}

// Decode decodes the envelope of the given record and returns the decoded
// uplinks it carries. Envelopes without uplink are counted and return no
// records.
func (s *Server) Decode(ctx context.Context, r input.Record) ([]models.Record, error) {
	var env semtech.Envelope
	var err error

	if r.Raw != nil {
		env, err = semtech.Decode(r.Raw)
	} else {
		env, err = semtech.DecodeBase64(r.Base64)
	}
	if err != nil {
		return nil, errors.Wrap(err, "decode envelope error")
	}

	envelopeCounter(env.PacketType().String()).Inc()

	logging.WithContext(ctx).WithFields(log.Fields{
		"gateway_id":  env.GatewayID,
		"packet_type": env.PacketType(),
	}).Debug("processor: envelope decoded")

	if env.PacketType() != semtech.PushData || env.Payload == nil {
		return nil, nil
	}

	if stat, err := env.Payload.Stat(); err != nil {
		logging.WithContext(ctx).WithError(err).Warning("processor: decode stat error")
	} else if stat != nil {
		logging.WithContext(ctx).WithFields(log.Fields{
			"gateway_id": env.GatewayID,
			"rx_nb":      stat.RXNb,
			"rx_ok":      stat.RXOK,
			"rx_fw":      stat.RXFW,
			"tx_nb":      stat.TXNb,
		}).Debug("processor: gateway stats received")
	}

	if !env.Payload.HasRXPK() {
		return nil, nil
	}

	rxpks, err := env.Payload.RXPK()
	if err != nil {
		return nil, errors.Wrap(codec.WithCause(codec.ErrMalformedPayload, err), "decode rxpk error")
	}

	if s.config.StrictSingleRXPK {
		switch {
		case len(rxpks) == 0:
			return nil, ErrNoRXPK
		case len(rxpks) > 1:
			return nil, errors.Wrapf(ErrMultipleRXPK, "got %d", len(rxpks))
		}
	}

	var opts []phypayload.Option
	if s.config.LegacyFHDRLength {
		opts = append(opts, phypayload.WithLegacyFHDRLength())
	}

	id := logging.ContextID(ctx)
	out := make([]models.Record, 0, len(rxpks))

	for i, rxpk := range rxpks {
		frame, err := phypayload.DecodeBase64(rxpk.Data, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "decode rxpk[%d] phypayload error", i)
		}

		if meta, err := rxpk.Meta(); err != nil {
			logging.WithContext(ctx).WithField("rxpk_index", i).WithError(err).Debug("processor: rxpk meta-data ignored")
		} else {
			logging.WithContext(ctx).WithFields(log.Fields{
				"rxpk_index": i,
				"freq":       meta.Freq,
				"datr":       meta.DatR,
				"rssi":       meta.RSSI,
				"lsnr":       meta.LSNR,
			}).Debug("processor: rxpk received")
		}

		out = append(out, models.Record{
			ID:        id,
			Source:    r.Source,
			Line:      r.Line,
			Timestamp: r.Timestamp,
			Envelope:  env,
			RXPKIndex: i,
			RXPK:      rxpk,
			Frame:     frame,
		})
	}

	return out, nil
}
