package storage

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// errors
var (
	ErrAlreadyExists = errors.New("object already exists")
	ErrDoesNotExist  = errors.New("object does not exist")
	ErrNotConfigured = errors.New("storage backend is not configured")
)

func handlePSQLError(err error, description string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDoesNotExist
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrAlreadyExists
	}

	return errors.Wrap(err, "storage: "+description)
}
