// Package memory keeps mirrored rows in process. The worker uses it when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"timesheet/internal/sheets"
)

type Sheet struct {
	mu   sync.Mutex
	rows []sheets.EntryRow
}

var (
	_ sheets.RowWriter = (*Sheet)(nil)
	_ sheets.RowLister = (*Sheet)(nil)
)

func New() *Sheet { return &Sheet{} }

// AppendRow stores the row and returns a synthetic row reference.
func (s *Sheet) AppendRow(_ context.Context, row sheets.EntryRow) (string, error) {
	if strings.TrimSpace(row.EntryID) == "" {
		return "", fmt.Errorf("row without entry id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// ListRows returns the rows whose entry date falls in year.
func (s *Sheet) ListRows(_ context.Context, year int) ([]sheets.EntryRow, error) {
	prefix := fmt.Sprintf("%04d-", year)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheets.EntryRow, 0)
	for _, r := range s.rows {
		if strings.HasPrefix(r.Date, prefix) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Sheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
