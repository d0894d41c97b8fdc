// Package integration defines the interface implemented by the record
// publishing integrations and the helpers they share.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"text/template"

	"github.com/pkg/errors"

	"github.com/loralogger/lora-log-decoder/internal/models"
)

// Handler defines the interface of an integration.
type Handler interface {
	// HandleRecord publishes the given record.
	HandleRecord(ctx context.Context, r models.Record) error

	// Close closes the integration.
	Close() error
}

// TemplateContext holds the values available in topic, routing key and
// subject templates.
type TemplateContext struct {
	GatewayID  string
	DevAddr    string
	MType      string
	PacketType string
}

// NewTemplateContext returns the template context of the given record.
func NewTemplateContext(r models.Record) TemplateContext {
	return TemplateContext{
		GatewayID:  r.Envelope.GatewayID.String(),
		DevAddr:    r.Frame.DevAddr.String(),
		MType:      r.Frame.MHDR().MType.String(),
		PacketType: r.Envelope.PacketType().String(),
	}
}

// ParseTemplate parses the given topic template.
func ParseTemplate(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, errors.Wrapf(err, "integration: parse %s template error", name)
	}
	return t, nil
}

// ExecuteTemplate renders the template for the given record.
func ExecuteTemplate(t *template.Template, r models.Record) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, NewTemplateContext(r)); err != nil {
		return "", errors.Wrap(err, "integration: execute template error")
	}
	return b.String(), nil
}

// Marshal returns the JSON payload published for the given record.
func Marshal(r models.Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "integration: marshal json error")
	}
	return b, nil
}

// Handlers fans out every record to a set of integrations.
type Handlers []Handler

// HandleRecord calls HandleRecord on every integration. All integrations
// are called, the first error is returned.
func (h Handlers) HandleRecord(ctx context.Context, r models.Record) error {
	var first error
	for _, i := range h {
		if err := i.HandleRecord(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every integration. The first error is returned.
func (h Handlers) Close() error {
	var first error
	for _, i := range h {
		if err := i.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
