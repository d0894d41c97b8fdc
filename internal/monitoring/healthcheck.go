package monitoring

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/loralogger/lora-log-decoder/internal/storage"
)

// healthCheckHandlerFunc pings the configured storage backends.
func healthCheckHandlerFunc(w http.ResponseWriter, r *http.Request) {
	if c := storage.RedisClient(); c != nil {
		if err := c.Ping(r.Context()).Err(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(errors.Wrap(err, "redis ping error").Error()))
			return
		}
	}

	if db := storage.DB(); db != nil {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(errors.Wrap(err, "postgresql ping error").Error()))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}
