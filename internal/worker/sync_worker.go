package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"timesheet/internal/amqp"
	"timesheet/internal/core"
	"timesheet/internal/sheets"
	"timesheet/internal/storage"
)

// EventStore is the slice of the sqlite repository the worker reads from and
// records its audit trail into.
type EventStore interface {
	List(ctx context.Context) ([]core.TimeEntry, error)
	Get(ctx context.Context, id string) (core.TimeEntry, error)
	Taxonomy(ctx context.Context) (core.Taxonomy, error)
	RecordEvent(ctx context.Context, ev storage.EventRecord) (int64, error)
	ListEvents(ctx context.Context, entryID string) ([]storage.EventRecord, error)
}

var _ EventStore = (*storage.SQLiteRepository)(nil)

// SyncWorker mirrors entry changes from SQLite into a spreadsheet.
type SyncWorker struct {
	storage   EventStore
	sheets    sheets.RowWriter
	batchSize int
	now       func() time.Time
}

// NewSyncWorker wires the worker. rows may be nil, in which case only the
// audit trail is written.
func NewSyncWorker(store EventStore, rows sheets.RowWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncWorker{
		storage:   store,
		sheets:    rows,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// HandleEntryEvent processes a single entry event from AMQP. It satisfies
// amqp.EventHandler.
func (w *SyncWorker) HandleEntryEvent(ctx context.Context, ev *amqp.EntryEvent) error {
	slog.InfoContext(ctx, "Processing entry event",
		"type", ev.Type,
		"entry_id", ev.EntryID,
		"user_id", ev.UserID)

	switch ev.Type {
	case amqp.EntryCreated, amqp.EntryUpdated:
		return w.handleUpsert(ctx, ev)
	case amqp.EntryDeleted:
		return w.handleDelete(ctx, ev)
	default:
		return fmt.Errorf("unsupported event type %q", ev.Type)
	}
}

func (w *SyncWorker) handleUpsert(ctx context.Context, ev *amqp.EntryEvent) error {
	if ev.Type == amqp.EntryCreated {
		done, err := w.alreadyMirrored(ctx, ev.EntryID)
		if err != nil {
			return err
		}
		if done {
			// the catch-up pass got here before the queued event
			slog.InfoContext(ctx, "Entry already mirrored, skipping created event",
				"entry_id", ev.EntryID)
			return nil
		}
	}

	entry, err := w.storage.Get(ctx, ev.EntryID)
	if errors.Is(err, core.ErrEntryNotFound) {
		// deleted before the event reached us; the delete event writes the tombstone
		slog.WarnContext(ctx, "Entry no longer exists, skipping sheet sync",
			"type", ev.Type,
			"entry_id", ev.EntryID)
		return w.record(ctx, ev, ev.Date, "")
	}
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	tax, err := w.storage.Taxonomy(ctx)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}

	ref, err := w.syncEntryToSheets(ctx, string(ev.Type), entry, tax)
	if err != nil {
		return fmt.Errorf("sync entry to sheets: %w", err)
	}
	return w.record(ctx, ev, entry.Date, ref)
}

// alreadyMirrored reports whether entryID has an audit record. An empty id
// would match every record.
func (w *SyncWorker) alreadyMirrored(ctx context.Context, entryID string) (bool, error) {
	if entryID == "" {
		return false, nil
	}
	events, err := w.storage.ListEvents(ctx, entryID)
	if err != nil {
		return false, fmt.Errorf("list events for %s: %w", entryID, err)
	}
	return len(events) > 0, nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, ev *amqp.EntryEvent) error {
	ref := ""
	if w.sheets != nil {
		row := sheets.EntryRow{
			RecordedAt: w.now().UTC(),
			Event:      string(amqp.EntryDeleted),
			EntryID:    ev.EntryID,
			UserID:     ev.UserID,
			Date:       ev.Date,
		}
		var err error
		if ref, err = w.sheets.AppendRow(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to write tombstone row",
				"entry_id", ev.EntryID,
				"error", err,
				"timestamp", ev.Timestamp)
			return fmt.Errorf("append tombstone: %w", err)
		}
		slog.InfoContext(ctx, "Successfully wrote tombstone row",
			"entry_id", ev.EntryID,
			"sheets_ref", ref)
	}
	return w.record(ctx, ev, ev.Date, ref)
}

// StartupSyncCheck mirrors entries that have no audit record yet. It
// recovers from lost AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	entries, err := w.storage.List(ctx)
	if err != nil {
		return fmt.Errorf("list entries for startup check: %w", err)
	}
	events, err := w.storage.ListEvents(ctx, "")
	if err != nil {
		return fmt.Errorf("list events for startup check: %w", err)
	}
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		seen[ev.EntryID] = true
	}

	var pending []core.TimeEntry
	for _, e := range entries {
		if !seen[e.ID] {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}
	if len(pending) > w.batchSize*5 {
		pending = pending[:w.batchSize*5]
	}

	tax, err := w.storage.Taxonomy(ctx)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}

	slog.InfoContext(ctx, "Found pending entries on startup, processing...", "count", len(pending))

	successCount, errorCount := 0, 0
	for _, e := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ref, err := w.syncEntryToSheets(ctx, string(amqp.EntryCreated), e, tax)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry during startup", "entry_id", e.ID, "error", err)
			errorCount++
			continue
		}
		ev := amqp.NewEntryEvent(amqp.EntryCreated, e.ID, e.UserID, e.Date)
		ev.Timestamp = e.CreatedAt
		if err := w.record(ctx, ev, e.Date, ref); err != nil {
			slog.ErrorContext(ctx, "Failed to record startup sync", "entry_id", e.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *SyncWorker) syncEntryToSheets(ctx context.Context, event string, e core.TimeEntry, tax core.Taxonomy) (string, error) {
	if w.sheets == nil {
		return "", nil
	}
	row := sheets.EntryRow{
		RecordedAt:   w.now().UTC(),
		Event:        event,
		EntryID:      e.ID,
		UserID:       e.UserID,
		Date:         e.Date,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		MainCategory: e.MainCategoryID,
		SubCategory:  e.SubCategoryID,
		Description:  e.Description,
		Minutes:      e.Duration,
	}
	// names read better in the sheet; ids stay when a category is unknown
	if m, ok := tax.Main(e.MainCategoryID); ok {
		row.MainCategory = m.Name
	}
	if s, ok := tax.Sub(e.SubCategoryID); ok {
		row.SubCategory = s.Name
	}

	ref, err := w.sheets.AppendRow(ctx, row)
	if err != nil {
		return "", fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced entry",
		"entry_id", e.ID,
		"sheets_ref", ref,
		"date", e.Date,
		"minutes", e.Duration)
	return ref, nil
}

func (w *SyncWorker) record(ctx context.Context, ev *amqp.EntryEvent, date, ref string) error {
	_, err := w.storage.RecordEvent(ctx, storage.EventRecord{
		Type:        string(ev.Type),
		EntryID:     ev.EntryID,
		UserID:      ev.UserID,
		EntryDate:   date,
		OccurredAt:  ev.Timestamp,
		ProcessedAt: w.now().UTC(),
		SheetRef:    ref,
	})
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}
