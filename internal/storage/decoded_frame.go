package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/brocaar/lorawan"
	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/loralogger/lora-log-decoder/internal/models"
)

// DecodedFrame represents a persisted decoded uplink.
type DecodedFrame struct {
	ID         uuid.UUID       `db:"id"`
	RXPKIndex  int             `db:"rxpk_index"`
	CreatedAt  time.Time       `db:"created_at"`
	Source     string          `db:"source"`
	Line       int             `db:"line"`
	Timestamp  string          `db:"timestamp"`
	GatewayID  lorawan.EUI64   `db:"gateway_id"`
	PacketType string          `db:"packet_type"`
	DevAddr    lorawan.DevAddr `db:"dev_addr"`
	MType      string          `db:"m_type"`
	FCnt       int             `db:"f_cnt"`
	MIC        []byte          `db:"mic"`
	Record     json.RawMessage `db:"record"`
}

// NewDecodedFrame returns the DecodedFrame for the given record.
func NewDecodedFrame(r models.Record) (DecodedFrame, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return DecodedFrame{}, errors.Wrap(err, "storage: marshal record error")
	}

	return DecodedFrame{
		ID:         r.ID,
		RXPKIndex:  r.RXPKIndex,
		Source:     r.Source,
		Line:       r.Line,
		Timestamp:  r.Timestamp,
		GatewayID:  r.Envelope.GatewayID,
		PacketType: r.Envelope.PacketType().String(),
		DevAddr:    r.Frame.DevAddr,
		MType:      r.Frame.MHDR().MType.String(),
		FCnt:       int(r.Frame.FCnt()),
		MIC:        r.Frame.MIC[:],
		Record:     b,
	}, nil
}

// CreateDecodedFrame creates the given decoded frame.
func CreateDecodedFrame(db sqlx.Execer, f *DecodedFrame) error {
	f.CreatedAt = time.Now().UTC()

	_, err := db.Exec(`
		insert into decoded_frame (
			id,
			rxpk_index,
			created_at,
			source,
			line,
			timestamp,
			gateway_id,
			packet_type,
			dev_addr,
			m_type,
			f_cnt,
			mic,
			record
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		f.ID,
		f.RXPKIndex,
		f.CreatedAt,
		f.Source,
		f.Line,
		f.Timestamp,
		f.GatewayID[:],
		f.PacketType,
		f.DevAddr[:],
		f.MType,
		f.FCnt,
		f.MIC,
		[]byte(f.Record),
	)
	if err != nil {
		return handlePSQLError(err, "insert error")
	}

	log.WithFields(log.Fields{
		"id":       f.ID,
		"dev_addr": f.DevAddr,
	}).Debug("storage: decoded frame created")

	return nil
}

// GetDecodedFrames returns the most recent decoded frames for the given
// DevAddr, newest first.
func GetDecodedFrames(db sqlx.Queryer, devAddr lorawan.DevAddr, limit int) ([]DecodedFrame, error) {
	var out []DecodedFrame
	err := sqlx.Select(db, &out, `
		select
			*
		from
			decoded_frame
		where
			dev_addr = $1
		order by
			created_at desc,
			rxpk_index desc
		limit $2`,
		devAddr[:],
		limit,
	)
	if err != nil {
		return nil, handlePSQLError(err, "select error")
	}
	return out, nil
}

// Handler persists every handled record.
type Handler struct{}

// HandleRecord stores the given record.
func (Handler) HandleRecord(ctx context.Context, r models.Record) error {
	f, err := NewDecodedFrame(r)
	if err != nil {
		return err
	}

	return Transaction(func(tx sqlx.Ext) error {
		return CreateDecodedFrame(tx, &f)
	})
}

// Close implements integration.Handler.
func (Handler) Close() error {
	return nil
}
