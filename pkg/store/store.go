// Package store persists the user's saved leads and jobs on top of the
// kv layer, as JSON values keyed by entity ID.
//
// Reads degrade instead of failing: an entry that no longer parses is
// deleted and skipped with a warning, so one corrupt record never takes
// the whole saved list down with it.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/reconhq/recon/pkg/kv"
	"github.com/reconhq/recon/pkg/leadgen"
)

var (
	companyPrefix = kv.Key{"saved", "company"}
	jobPrefix     = kv.Key{"saved", "job"}
)

// Store is the typed persistence facade.
type Store struct {
	kv     kv.Store
	logger *slog.Logger
}

// New wraps a kv.Store. A nil logger means slog.Default().
func New(store kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: store, logger: logger}
}

// SaveCompany adds or updates a saved company.
func (s *Store) SaveCompany(ctx context.Context, c leadgen.Company) error {
	if c.ID == "" {
		return fmt.Errorf("store: company has no ID")
	}
	return s.put(ctx, append(companyPrefix, c.ID), c)
}

// RemoveCompany deletes a saved company. Unknown IDs are a no-op.
func (s *Store) RemoveCompany(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, append(companyPrefix, id))
}

// SavedCompanies returns all saved companies in key order.
func (s *Store) SavedCompanies(ctx context.Context) ([]leadgen.Company, error) {
	return list[leadgen.Company](s, ctx, companyPrefix)
}

// SaveJob adds or updates a saved job posting.
func (s *Store) SaveJob(ctx context.Context, j leadgen.SavedJob) error {
	if j.ID == "" {
		return fmt.Errorf("store: job has no ID")
	}
	return s.put(ctx, append(jobPrefix, j.ID), j)
}

// RemoveJob deletes a saved job. Unknown IDs are a no-op.
func (s *Store) RemoveJob(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, append(jobPrefix, id))
}

// SavedJobs returns all saved jobs in key order.
func (s *Store) SavedJobs(ctx context.Context) ([]leadgen.SavedJob, error) {
	return list[leadgen.SavedJob](s, ctx, jobPrefix)
}

func (s *Store) put(ctx context.Context, key kv.Key, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, b)
}

// list decodes every entry under prefix. Corrupt entries are deleted and
// skipped; only the kv layer itself can fail the read.
func list[T any](s *Store, ctx context.Context, prefix kv.Key) ([]T, error) {
	var out []T
	var corrupt []kv.Key
	for e, err := range s.kv.List(ctx, prefix) {
		if err != nil {
			return nil, fmt.Errorf("store: list %s: %w", prefix, err)
		}
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			s.logger.Warn("store: dropping corrupt entry", "key", e.Key.String(), "err", err)
			corrupt = append(corrupt, e.Key)
			continue
		}
		out = append(out, v)
	}
	for _, key := range corrupt {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Warn("store: delete corrupt entry", "key", key.String(), "err", err)
		}
	}
	return out, nil
}
