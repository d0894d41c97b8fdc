// Package report renders decoded records in a human readable text form or
// as JSON lines.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"text/template"

	"github.com/pkg/errors"

	"github.com/loralogger/lora-log-decoder/internal/codec"
	"github.com/loralogger/lora-log-decoder/internal/models"
)

// Formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const textTemplate = `Timestamp: {{ .Timestamp }}
Protocol version: {{ hexByte .Envelope.ProtocolVersion }}
Gateway ID: {{ .Envelope.GatewayID }}
{{ rxpk . }}
MHdr: {{ hexByte .Frame.MACHeader }}
MIC: {{ .Frame.MIC }}
DevAddr: {{ .Frame.DevAddr }}

`

var tmpl = template.Must(template.New("record").Funcs(template.FuncMap{
	"hexByte": codec.HexByte,
	"rxpk": func(r models.Record) (string, error) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, r.JSON().RXPK); err != nil {
			return "", err
		}
		return buf.String(), nil
	},
}).Parse(textTemplate))

// Writer writes the records it handles to an io.Writer.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

// NewWriter creates a new Writer for the given format.
func NewWriter(w io.Writer, format string) (*Writer, error) {
	switch format {
	case FormatText, FormatJSON:
	default:
		return nil, errors.Errorf("report: unknown format '%s'", format)
	}

	return &Writer{
		w:      w,
		format: format,
	}, nil
}

// HandleRecord writes the given record.
func (w *Writer) HandleRecord(ctx context.Context, r models.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.format {
	case FormatJSON:
		if err := json.NewEncoder(w.w).Encode(r); err != nil {
			return errors.Wrap(err, "report: encode json error")
		}
	default:
		if err := tmpl.Execute(w.w, r); err != nil {
			return errors.Wrap(err, "report: execute template error")
		}
	}

	return nil
}
