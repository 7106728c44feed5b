// Package repo declares the persistence ports used by the entry service and
// the HTTP layer. Implementations live in repo/memory and storage.
package repo

import (
	"context"

	"timesheet/internal/core"
)

type (
	// EntryRepository stores time entries. List returns a snapshot copy that
	// callers may keep and reorder freely. Get, Update and Delete report a
	// missing id with core.ErrEntryNotFound.
	EntryRepository interface {
		List(ctx context.Context) ([]core.TimeEntry, error)
		Get(ctx context.Context, id string) (core.TimeEntry, error)
		Add(ctx context.Context, e core.TimeEntry) error
		Update(ctx context.Context, e core.TimeEntry) error
		Delete(ctx context.Context, id string) error
	}

	TaxonomyReader interface {
		Taxonomy(ctx context.Context) (core.Taxonomy, error)
	}

	// Store is what a data backend provides.
	Store interface {
		EntryRepository
		TaxonomyReader
		Close() error
	}
)
