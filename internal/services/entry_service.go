package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"timesheet/internal/amqp"
	"timesheet/internal/analytics"
	"timesheet/internal/core"
	"timesheet/internal/repo"
)

// ErrForbidden is returned when a user touches an entry they do not own.
var ErrForbidden = errors.New("entry belongs to another user")

// EventPublisher announces entry changes to other processes.
type EventPublisher interface {
	PublishEntryEvent(ctx context.Context, ev *amqp.EntryEvent) error
}

// EntryStore is the persistence the service needs.
type EntryStore interface {
	repo.EntryRepository
	repo.TaxonomyReader
}

// EntryService owns every write to time entries: it derives durations,
// stamps timestamps, enforces ownership and announces changes.
type EntryService struct {
	store     EntryStore
	publisher EventPublisher
	now       func() time.Time
	newID     func() string

	mu       sync.Mutex
	onChange []func()
}

// Option configures an EntryService.
type Option func(*EntryService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *EntryService) { s.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *EntryService) { s.newID = gen }
}

// NewEntryService wires the service. publisher may be nil.
func NewEntryService(store EntryStore, publisher EventPublisher, opts ...Option) *EntryService {
	s := &EntryService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnChange registers fn to run after every successful write.
func (s *EntryService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// CreateEntry validates the draft and stores a new entry owned by user.
func (s *EntryService) CreateEntry(ctx context.Context, user core.User, d core.EntryDraft) (core.TimeEntry, error) {
	if user.ID == "" {
		return core.TimeEntry{}, core.ErrEmptyUser
	}
	if err := s.validate(ctx, d); err != nil {
		return core.TimeEntry{}, err
	}

	now := s.now().UTC()
	e := core.TimeEntry{
		ID:        s.newID(),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Apply(d); err != nil {
		return core.TimeEntry{}, err
	}
	if err := s.store.Add(ctx, e); err != nil {
		return core.TimeEntry{}, fmt.Errorf("save entry: %w", err)
	}

	slog.InfoContext(ctx, "Time entry created",
		"entry_id", e.ID,
		"user_id", e.UserID,
		"date", e.Date,
		"duration", e.Duration)
	s.changed(ctx, amqp.EntryCreated, e)
	return e, nil
}

// UpdateEntry replaces the editable fields of an entry owned by user. The
// id, owner and creation time never change.
func (s *EntryService) UpdateEntry(ctx context.Context, user core.User, id string, d core.EntryDraft) (core.TimeEntry, error) {
	e, err := s.owned(ctx, user, id)
	if err != nil {
		return core.TimeEntry{}, err
	}
	if err := s.validate(ctx, d); err != nil {
		return core.TimeEntry{}, err
	}

	if err := e.Apply(d); err != nil {
		return core.TimeEntry{}, err
	}
	e.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, e); err != nil {
		return core.TimeEntry{}, fmt.Errorf("update entry: %w", err)
	}

	slog.InfoContext(ctx, "Time entry updated", "entry_id", e.ID, "user_id", e.UserID)
	s.changed(ctx, amqp.EntryUpdated, e)
	return e, nil
}

// DeleteEntry removes an entry owned by user.
func (s *EntryService) DeleteEntry(ctx context.Context, user core.User, id string) error {
	e, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	slog.InfoContext(ctx, "Time entry deleted", "entry_id", id, "user_id", e.UserID)
	s.changed(ctx, amqp.EntryDeleted, e)
	return nil
}

// Get returns one entry. Users may read their own entries; roles that can
// view every user may read any entry.
func (s *EntryService) Get(ctx context.Context, user core.User, id string) (core.TimeEntry, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return core.TimeEntry{}, err
	}
	if e.UserID != user.ID && !user.Can(core.CapViewAllUsers) {
		return core.TimeEntry{}, ErrForbidden
	}
	return e, nil
}

// ListForUser returns the user's entries, newest first.
func (s *EntryService) ListForUser(ctx context.Context, userID string) ([]core.TimeEntry, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return analytics.SortForDisplay(analytics.ForUser(all, userID)), nil
}

func (s *EntryService) owned(ctx context.Context, user core.User, id string) (core.TimeEntry, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return core.TimeEntry{}, err
	}
	if e.UserID != user.ID {
		return core.TimeEntry{}, ErrForbidden
	}
	return e, nil
}

func (s *EntryService) validate(ctx context.Context, d core.EntryDraft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	tax, err := s.store.Taxonomy(ctx)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}
	return tax.CheckPair(d.MainCategoryID, d.SubCategoryID)
}

// changed runs the hooks and publishes the event. Publish failures are
// logged only; the write already succeeded.
func (s *EntryService) changed(ctx context.Context, typ amqp.EventType, e core.TimeEntry) {
	s.mu.Lock()
	hooks := append([]func(){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping entry event", "type", typ)
		return
	}
	if err := s.publisher.PublishEntryEvent(ctx, amqp.NewEntryEvent(typ, e.ID, e.UserID, e.Date)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry event",
			"type", typ,
			"entry_id", e.ID,
			"error", err)
	}
}

// Close releases the publisher and the store when they hold resources.
func (s *EntryService) Close() error {
	var errs []error
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	return errors.Join(errs...)
}
