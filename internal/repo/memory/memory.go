// Package memory is an in-process entry store, optionally mirrored to a JSON
// snapshot file after every write.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"timesheet/internal/core"
)

type Store struct {
	mu       sync.Mutex
	tax      core.Taxonomy
	items    []core.TimeEntry
	snapshot string
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshot mirrors the entries to path. Existing content is loaded by Open.
func WithSnapshot(path string) Option {
	return func(s *Store) { s.snapshot = path }
}

// WithTaxonomy replaces the default category tables.
func WithTaxonomy(t core.Taxonomy) Option {
	return func(s *Store) { s.tax = t }
}

// New returns a store holding entries.
func New(entries []core.TimeEntry, opts ...Option) *Store {
	s := &Store{tax: core.DefaultTaxonomy()}
	for _, o := range opts {
		o(s)
	}
	s.items = append(make([]core.TimeEntry, 0, len(entries)), entries...)
	return s
}

// Open loads the snapshot at path. When the file does not exist the store is
// seeded with mock entries if seed is true, and the snapshot is written.
func Open(path string, seed bool, opts ...Option) (*Store, error) {
	s := New(nil, append([]Option{WithSnapshot(path)}, opts...)...)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s.items); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
		}
		slog.Info("Loaded entry snapshot", "path", path, "entries", len(s.items))
		return s, nil
	case errors.Is(err, os.ErrNotExist):
		if seed {
			s.items = MockEntries(time.Now().UTC(), s.tax, 1)
			slog.Info("Seeded mock entries", "entries", len(s.items))
		}
		if err := s.persistLocked(s.items); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
}

// List returns a copy of every entry in insertion order.
func (s *Store) List(_ context.Context) ([]core.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]core.TimeEntry, 0, len(s.items)), s.items...), nil
}

func (s *Store) Get(_ context.Context, id string) (core.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return core.TimeEntry{}, core.ErrEntryNotFound
	}
	return s.items[i], nil
}

func (s *Store) Add(_ context.Context, e core.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(e.ID) >= 0 {
		return fmt.Errorf("entry %s already exists", e.ID)
	}
	next := append(make([]core.TimeEntry, 0, len(s.items)+1), s.items...)
	return s.commitLocked(append(next, e))
}

func (s *Store) Update(_ context.Context, e core.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(e.ID)
	if i < 0 {
		return core.ErrEntryNotFound
	}
	next := append(make([]core.TimeEntry, 0, len(s.items)), s.items...)
	next[i] = e
	return s.commitLocked(next)
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return core.ErrEntryNotFound
	}
	next := append(make([]core.TimeEntry, 0, len(s.items)-1), s.items[:i]...)
	return s.commitLocked(append(next, s.items[i+1:]...))
}

// Taxonomy returns the category tables.
func (s *Store) Taxonomy(_ context.Context) (core.Taxonomy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Taxonomy{
		Mains: append([]core.MainCategory(nil), s.tax.Mains...),
		Subs:  append([]core.SubCategory(nil), s.tax.Subs...),
	}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// commitLocked replaces the entries with next once the snapshot holds them.
// A failed write leaves the store unchanged.
func (s *Store) commitLocked(next []core.TimeEntry) error {
	if err := s.persistLocked(next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// persistLocked writes items to a temp file and renames it into place.
func (s *Store) persistLocked(items []core.TimeEntry) error {
	if s.snapshot == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.snapshot), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := s.snapshot + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.snapshot); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
