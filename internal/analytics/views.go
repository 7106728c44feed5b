package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"timesheet/internal/core"
)

// UserTotals summarizes all of one user's entries.
type UserTotals struct {
	TotalMinutes int    `json:"totalMinutes"`
	EntryCount   int    `json:"entryCount"`
	FirstDate    string `json:"firstDate,omitempty"`
	LastDate     string `json:"lastDate,omitempty"`
}

// ForUser returns the entries owned by userID, in input order.
func ForUser(entries []core.TimeEntry, userID string) []core.TimeEntry {
	out := make([]core.TimeEntry, 0)
	for _, e := range entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// EntriesOn returns the user's entries logged on date.
func EntriesOn(entries []core.TimeEntry, userID, date string) []core.TimeEntry {
	out := make([]core.TimeEntry, 0)
	for _, e := range entries {
		if e.UserID == userID && e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

// DatesWithEntries returns the sorted distinct dates in month ("YYYY-MM")
// on which the user logged at least one entry.
func DatesWithEntries(entries []core.TimeEntry, userID, month string) []string {
	prefix := month + "-"
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range entries {
		if e.UserID != userID || !strings.HasPrefix(e.Date, prefix) {
			continue
		}
		if _, ok := seen[e.Date]; ok {
			continue
		}
		seen[e.Date] = struct{}{}
		out = append(out, e.Date)
	}
	sort.Strings(out)
	return out
}

// SortForDisplay orders entries newest date first, ties broken by newest
// creation time. The input slice is not modified.
func SortForDisplay(entries []core.TimeEntry) []core.TimeEntry {
	out := make([]core.TimeEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Totals computes UserTotals for userID.
func Totals(entries []core.TimeEntry, userID string) UserTotals {
	var t UserTotals
	for _, e := range entries {
		if e.UserID != userID {
			continue
		}
		t.TotalMinutes += e.Duration
		t.EntryCount++
		if t.FirstDate == "" || e.Date < t.FirstDate {
			t.FirstDate = e.Date
		}
		if e.Date > t.LastDate {
			t.LastDate = e.Date
		}
	}
	return t
}

// RecentCount counts the user's entries created within the last days days.
// Distances are rounded up to whole days, so anything created less than
// 24h ago counts as one day.
func RecentCount(entries []core.TimeEntry, userID string, now time.Time, days int) int {
	n := 0
	for _, e := range entries {
		if e.UserID != userID {
			continue
		}
		diff := math.Abs(float64(now.Sub(e.CreatedAt)))
		if int(math.Ceil(diff/float64(24*time.Hour))) <= days {
			n++
		}
	}
	return n
}

// FormatDuration renders minutes as "Xh Ym".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
