package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/contract-instance-registry/interfaces"
)

// MultiStorageBackend implements interfaces.StorageBackend over a set of
// backends. Fetches are routed to the backends resolving the pointer's
// scheme, with same-scheme mirrors acting as fallbacks; stores are
// replicated to every available writable backend.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiStorageBackend creates a new multi-storage backend with fallback.
func NewMultiStorageBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiStorageBackend {
	// If no logger is provided, create a default one
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch resolves the pointer through the backends matching its scheme,
// returning the first successful result.
func (m *MultiStorageBackend) Fetch(ctx context.Context, loc interfaces.MetadataLocation) ([]byte, error) {
	start := time.Now()
	var errs []error
	var matched int

	for _, backend := range m.backends {
		if backend.Scheme() != loc.Scheme {
			continue
		}
		matched++

		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("pointer", loc.Raw))
			continue
		}

		data, err := backend.Fetch(ctx, loc)
		if err == nil {
			m.log.Debug("Fetched descriptor",
				slog.String("backend_name", backend.Name()),
				slog.String("pointer", loc.Raw),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("pointer", loc.Raw),
			"err", err)
	}

	if matched == 0 {
		return nil, fmt.Errorf("no backend for scheme %q", loc.Scheme)
	}

	m.log.Error("All backends failed to fetch descriptor",
		slog.String("pointer", loc.Raw),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("all backends failed to fetch %s: %w", loc.Raw, errors.Join(errs...))
}

// Store replicates a descriptor to every available writable backend and
// returns the pointer from the first successful store. Read-only backends
// are skipped.
func (m *MultiStorageBackend) Store(ctx context.Context, data []byte) (interfaces.MetadataLocation, error) {
	start := time.Now()
	var primary interfaces.MetadataLocation
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		loc, err := backend.Store(ctx, data)
		if err != nil {
			if errors.Is(err, interfaces.ErrReadOnlyBackend) {
				m.log.Debug("Skipping read-only backend", slog.String("backend_name", backend.Name()))
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
			continue
		}

		if !success {
			primary = loc
			success = true
			m.log.Info("Stored descriptor",
				slog.String("backend_name", backend.Name()),
				slog.String("pointer", loc.String()),
				slog.Duration("duration", time.Since(start)))
		} else {
			m.log.Debug("Replicated descriptor",
				slog.String("backend_name", backend.Name()),
				slog.String("pointer", loc.String()))
		}
	}

	if !success {
		m.log.Error("All backends failed to store descriptor",
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		if len(errs) == 0 {
			return interfaces.MetadataLocation{}, errors.New("no writable backend available")
		}
		return interfaces.MetadataLocation{}, fmt.Errorf("all backends failed to store data: %w", errors.Join(errs...))
	}

	return primary, nil
}

// Available checks if any backend is available.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend.
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// Scheme returns the pointer scheme this backend resolves. The multi backend
// routes by the pointer's scheme rather than carrying one of its own.
func (m *MultiStorageBackend) Scheme() string {
	return "multi"
}

// LocationURI returns the URI of this backend.
func (m *MultiStorageBackend) LocationURI() string {
	// Build a combined location URI from all backends
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
