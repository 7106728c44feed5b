package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"timesheet/internal/sheets"
)

var header = []any{
	"Recorded At", "Event", "Entry ID", "User", "Date", "Start", "End",
	"Main Category", "Sub Category", "Description", "Minutes",
}

const lastColumn = "K"

func encodeRow(r sheets.EntryRow) []any {
	return []any{
		r.RecordedAt.UTC().Format(time.RFC3339),
		r.Event,
		r.EntryID,
		r.UserID,
		r.Date,
		r.StartTime,
		r.EndTime,
		r.MainCategory,
		r.SubCategory,
		r.Description,
		r.Minutes,
	}
}

// decodeRows converts a values matrix into rows. The header and any row
// without an entry id are skipped; unparsable numbers read as zero.
func decodeRows(values [][]any) []sheets.EntryRow {
	out := make([]sheets.EntryRow, 0, len(values))
	for i, raw := range values {
		cols := toStrings(raw)
		if i == 0 && len(cols) > 0 && strings.EqualFold(cols[0], fmt.Sprint(header[0])) {
			continue
		}
		if safeGet(cols, 2) == "" {
			continue
		}
		row := sheets.EntryRow{
			Event:        safeGet(cols, 1),
			EntryID:      safeGet(cols, 2),
			UserID:       safeGet(cols, 3),
			Date:         safeGet(cols, 4),
			StartTime:    safeGet(cols, 5),
			EndTime:      safeGet(cols, 6),
			MainCategory: safeGet(cols, 7),
			SubCategory:  safeGet(cols, 8),
			Description:  safeGet(cols, 9),
		}
		if ts, err := time.Parse(time.RFC3339, safeGet(cols, 0)); err == nil {
			row.RecordedAt = ts
		}
		if m, err := strconv.Atoi(safeGet(cols, 10)); err == nil {
			row.Minutes = m
		}
		out = append(out, row)
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// yearOf extracts the year of a YYYY-MM-DD date, falling back to fallback.
func yearOf(date string, fallback int) int {
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			return y
		}
	}
	return fallback
}
