package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// MultiBackend implements interfaces.StorageBackend over multiple backends
// with fallback. Stores go to every available backend; fetches return from
// the first backend that has the artifact.
type MultiBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiBackend creates a multi-storage backend with fallback.
func NewMultiBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the artifact from the first available backend that has it.
func (m *MultiBackend) Fetch(ctx context.Context, id interfaces.ArtifactID, artifactType interfaces.ArtifactType) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("artifact_id", id.String()))
			continue
		}

		data, err := backend.Fetch(ctx, id, artifactType)
		if err == nil {
			m.log.Debug("Fetched artifact",
				slog.String("backend_name", backend.Name()),
				slog.String("artifact_id", id.String()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("artifact_id", id.String()),
			"err", err)
	}

	m.log.Error("All backends failed to fetch artifact",
		slog.String("artifact_id", id.String()),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("all backends failed to fetch %s: %v", id, errs)
}

// Store saves the artifact to all available backends. Succeeds if at least
// one store goes through.
func (m *MultiBackend) Store(ctx context.Context, data []byte, artifactType interfaces.ArtifactType) (interfaces.ArtifactID, error) {
	start := time.Now()
	var result interfaces.ArtifactID
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		id, err := backend.Store(ctx, data, artifactType)
		if err == nil {
			if !success {
				result = id
				success = true
				m.log.Debug("Stored artifact",
					slog.String("backend_name", backend.Name()),
					slog.String("artifact_id", id.String()),
					slog.Duration("duration", time.Since(start)))
			} else if result != id {
				// Same data must produce the same hash.
				m.log.Warn("Inconsistent hashes from backends",
					slog.String("backend_name", backend.Name()),
					slog.String("expected_id", result.String()),
					slog.String("actual_id", id.String()))
			}
		} else {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
		}
	}

	if !success {
		m.log.Error("All backends failed to store artifact",
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return result, fmt.Errorf("all backends failed to store artifact: %v", errs)
	}

	return result, nil
}

// Available reports whether any backend is available.
func (m *MultiBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend.
func (m *MultiBackend) Name() string {
	return "multi-storage"
}

// LocationURI returns the combined URI of all aggregated backends.
func (m *MultiBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
