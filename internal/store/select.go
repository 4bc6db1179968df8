package store

import (
	"context"
	"fmt"
	"log/slog"
)

// Opener connects to a storage backend.
type Opener func(ctx context.Context) (Backend, error)

// Select performs the one-time startup choice of storage backend. The durable
// opener is tried first when present; if it fails the failure is logged at
// WARN and the ephemeral backend is used instead. Only a failure of the
// ephemeral backend is returned to the caller.
func Select(ctx context.Context, durable, ephemeral Opener, logger *slog.Logger) (Backend, error) {
	if durable != nil {
		backend, err := durable(ctx)
		if err == nil {
			logger.Info("using durable storage backend", "backend", backend.Name())
			return backend, nil
		}
		logger.Warn("durable storage unavailable, falling back to ephemeral storage",
			"error", err)
	}

	backend, err := ephemeral(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open ephemeral storage: %w", err)
	}
	logger.Info("using ephemeral storage backend", "backend", backend.Name())
	return backend, nil
}
