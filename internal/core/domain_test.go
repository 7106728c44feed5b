package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in  string
		out int
		ok  bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{" 17:00 ", 1020, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"12:5", 0, false},
		{"1200", 0, false},
		{"ab:cd", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDurationMinutes(t *testing.T) {
	got, err := DurationMinutes("09:00", "17:00")
	if err != nil || got != 480 {
		t.Fatalf("expected 480, got %d (err=%v)", got, err)
	}
	got, err = DurationMinutes("17:00", "09:00")
	if err != nil || got != -480 {
		t.Fatalf("expected -480, got %d (err=%v)", got, err)
	}
	if _, err := DurationMinutes("x", "09:00"); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestValidDate(t *testing.T) {
	cases := map[string]bool{
		"2024-03-04": true,
		"2024-02-29": true,
		"2023-02-29": false,
		"2024-3-4":   false,
		"":           false,
		"yesterday":  false,
	}
	for in, want := range cases {
		if got := ValidDate(in); got != want {
			t.Errorf("ValidDate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEntryDraftValidate(t *testing.T) {
	good := EntryDraft{
		Date:           "2024-03-04",
		StartTime:      "09:00",
		EndTime:        "10:30",
		MainCategoryID: "1",
		SubCategoryID:  "2",
		Description:    "api work",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	wide := good
	wide.Description = strings.Repeat("时", 500)
	if err := wide.Validate(); err != nil {
		t.Fatalf("500 characters should be accepted, got %v", err)
	}

	bads := []struct {
		mutate func(*EntryDraft)
		want   error
	}{
		{func(d *EntryDraft) { d.Date = "2024-13-01" }, ErrInvalidDate},
		{func(d *EntryDraft) { d.StartTime = "9am" }, ErrInvalidTime},
		{func(d *EntryDraft) { d.EndTime = "09:00" }, ErrNonPositiveDuration},
		{func(d *EntryDraft) { d.EndTime = "08:00" }, ErrNonPositiveDuration},
		{func(d *EntryDraft) { d.MainCategoryID = " " }, ErrEmptyMainCategory},
		{func(d *EntryDraft) { d.SubCategoryID = "" }, ErrEmptySubCategory},
		{func(d *EntryDraft) { d.Description = strings.Repeat("x", 501) }, ErrDescriptionTooLong},
		{func(d *EntryDraft) { d.Description = strings.Repeat("时", 501) }, ErrDescriptionTooLong},
	}
	for i, tc := range bads {
		d := good
		tc.mutate(&d)
		if err := d.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestTimeEntryApplyKeepsIdentity(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	e := TimeEntry{ID: "abc", UserID: "2", CreatedAt: created}
	err := e.Apply(EntryDraft{
		Date: "2024-03-04", StartTime: "09:15", EndTime: "11:00",
		MainCategoryID: "1", SubCategoryID: "1",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if e.ID != "abc" || e.UserID != "2" || !e.CreatedAt.Equal(created) {
		t.Fatalf("identity fields changed: %+v", e)
	}
	if e.Duration != 105 {
		t.Fatalf("expected duration 105, got %d", e.Duration)
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}

	e.Duration = 1
	if err := e.Validate(); err == nil {
		t.Fatal("expected error for mismatched duration")
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{Start: "2024-03-01", End: "2024-03-07"}
	for date, want := range map[string]bool{
		"2024-02-29": false,
		"2024-03-01": true,
		"2024-03-04": true,
		"2024-03-07": true,
		"2024-03-08": false,
	} {
		if got := r.Contains(date); got != want {
			t.Errorf("Contains(%q) = %v, want %v", date, got, want)
		}
	}
}
