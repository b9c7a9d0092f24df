package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/eir-deployer/interfaces"
)

// MultiStore mirrors records across several stores. Reads fall back through
// the stores in order; writes go to every store.
type MultiStore struct {
	stores []interfaces.RecordStore
	log    *slog.Logger
}

// NewMultiStore creates a store mirroring stores, the first one being primary.
func NewMultiStore(stores []interfaces.RecordStore, log *slog.Logger) *MultiStore {
	if log == nil {
		log = slog.Default()
	}

	return &MultiStore{
		stores: stores,
		log:    log,
	}
}

// Load returns the record from the first store that has it. A store failing
// with anything other than ErrRecordNotFound makes the result an error unless
// a later store has the record, so an unreachable store is never mistaken for
// a missing deployment.
func (m *MultiStore) Load(ctx context.Context, network, name string) (*interfaces.DeploymentRecord, error) {
	var errs []error

	for _, store := range m.stores {
		rec, err := store.Load(ctx, network, name)
		if err == nil {
			return rec, nil
		}
		if errors.Is(err, interfaces.ErrRecordNotFound) {
			continue
		}

		errs = append(errs, fmt.Errorf("%s: %w", store.LocationURI(), err))
		m.log.Debug("Failed to load from store",
			slog.String("store", store.LocationURI()),
			slog.String("name", name),
			"err", err)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load %s/%s: %w", network, name, errors.Join(errs...))
	}
	return nil, interfaces.ErrRecordNotFound
}

// Save writes rec to every store and fails if any of them fails.
func (m *MultiStore) Save(ctx context.Context, rec *interfaces.DeploymentRecord) error {
	start := time.Now()
	var errs []error

	for _, store := range m.stores {
		if err := store.Save(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", store.LocationURI(), err))
			m.log.Error("Failed to save to store",
				slog.String("store", store.LocationURI()),
				slog.String("name", rec.Name),
				"err", err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	m.log.Debug("Record mirrored",
		slog.String("name", rec.Name),
		slog.Int("stores", len(m.stores)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// List returns the records of the first store that can list them.
func (m *MultiStore) List(ctx context.Context, network string) ([]interfaces.DeploymentRecord, error) {
	var errs []error

	for _, store := range m.stores {
		recs, err := store.List(ctx, network)
		if err == nil {
			return recs, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.LocationURI(), err))
	}

	return nil, fmt.Errorf("all stores failed to list %s: %w", network, errors.Join(errs...))
}

// LocationURI joins the location URIs of the mirrored stores with commas.
func (m *MultiStore) LocationURI() string {
	uris := make([]string, len(m.stores))
	for i, store := range m.stores {
		uris[i] = store.LocationURI()
	}
	return strings.Join(uris, ",")
}
