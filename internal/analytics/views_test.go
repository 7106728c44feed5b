package analytics

import (
	"reflect"
	"testing"
	"time"

	"timesheet/internal/core"
)

func TestEntriesOnAndDatesWithEntries(t *testing.T) {
	entries := []core.TimeEntry{
		entry("1", "2", "2024-03-05", "1", "1", 60),
		entry("2", "2", "2024-03-01", "1", "1", 60),
		entry("3", "2", "2024-03-05", "1", "2", 30),
		entry("4", "3", "2024-03-06", "1", "1", 60),
		entry("5", "2", "2024-04-01", "1", "1", 60),
	}

	on := EntriesOn(entries, "2", "2024-03-05")
	if len(on) != 2 || on[0].ID != "1" || on[1].ID != "3" {
		t.Fatalf("unexpected entries on date: %+v", on)
	}
	if got := EntriesOn(entries, "2", "2024-03-06"); len(got) != 0 {
		t.Fatalf("expected no entries for other user's day, got %+v", got)
	}

	dates := DatesWithEntries(entries, "2", "2024-03")
	if !reflect.DeepEqual(dates, []string{"2024-03-01", "2024-03-05"}) {
		t.Fatalf("unexpected dates: %v", dates)
	}
}

func TestSortForDisplay(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	in := []core.TimeEntry{
		{ID: "old", Date: "2024-03-01", CreatedAt: base},
		{ID: "new-early", Date: "2024-03-05", CreatedAt: base},
		{ID: "new-late", Date: "2024-03-05", CreatedAt: base.Add(time.Hour)},
	}
	got := SortForDisplay(in)
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	if !reflect.DeepEqual(ids, []string{"new-late", "new-early", "old"}) {
		t.Fatalf("unexpected order: %v", ids)
	}
	if in[0].ID != "old" {
		t.Fatal("input slice was reordered")
	}
}

func TestTotals(t *testing.T) {
	entries := []core.TimeEntry{
		entry("1", "2", "2024-03-05", "1", "1", 60),
		entry("2", "2", "2024-02-10", "1", "1", 45),
		entry("3", "3", "2024-01-01", "1", "1", 600),
		entry("4", "2", "2024-03-20", "1", "1", 15),
	}
	got := Totals(entries, "2")
	want := UserTotals{TotalMinutes: 120, EntryCount: 3, FirstDate: "2024-02-10", LastDate: "2024-03-20"}
	if got != want {
		t.Fatalf("Totals = %+v, want %+v", got, want)
	}
	if empty := Totals(entries, "9"); empty != (UserTotals{}) {
		t.Fatalf("expected zero totals, got %+v", empty)
	}
}

func TestRecentCount(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := []core.TimeEntry{
		{UserID: "2", CreatedAt: now.Add(-time.Hour)},
		{UserID: "2", CreatedAt: now.Add(-7 * 24 * time.Hour)},
		{UserID: "2", CreatedAt: now.Add(-7*24*time.Hour - time.Minute)},
		{UserID: "3", CreatedAt: now},
	}
	if got := RecentCount(entries, "2", now, 7); got != 2 {
		t.Fatalf("RecentCount = %d, want 2", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0h 0m"},
		{45, "0h 45m"},
		{60, "1h 0m"},
		{135, "2h 15m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.minutes); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}
