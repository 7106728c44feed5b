package sheets

import (
	"context"
	"time"
)

// EntryRow is one line of the spreadsheet mirror. Event is the change type
// that produced the row; deletions are written as tombstones with no entry
// details besides the id, owner and date.
type EntryRow struct {
	RecordedAt   time.Time
	Event        string
	EntryID      string
	UserID       string
	Date         string
	StartTime    string
	EndTime      string
	MainCategory string
	SubCategory  string
	Description  string
	Minutes      int
}

// Ports for outbound adapters.
type (
	RowWriter interface {
		AppendRow(ctx context.Context, row EntryRow) (rowRef string, err error)
	}

	RowLister interface {
		// ListRows returns the rows mirrored for the given year, oldest first.
		ListRows(ctx context.Context, year int) ([]EntryRow, error)
	}
)
