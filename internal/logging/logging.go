// Package logging provides the context id helpers used to correlate the
// log lines of a single record.
package logging

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ContextKey defines the context key type.
type ContextKey string

// ContextIDKey holds the key of the context ID.
const ContextIDKey ContextKey = "ctx_id"

// NewContext returns a copy of ctx holding a new random context ID.
func NewContext(ctx context.Context) (context.Context, uuid.UUID, error) {
	ctxID, err := uuid.NewV4()
	if err != nil {
		return nil, uuid.Nil, errors.Wrap(err, "new uuid error")
	}
	return context.WithValue(ctx, ContextIDKey, ctxID), ctxID, nil
}

// ContextID returns the context ID stored in ctx, or uuid.Nil.
func ContextID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ContextIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// WithContext returns a log entry with the ctx_id field set.
func WithContext(ctx context.Context) *log.Entry {
	return log.WithField("ctx_id", ContextID(ctx))
}
