package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"timesheet/internal/analytics"
	"timesheet/internal/core"
	"timesheet/internal/repo"
	"timesheet/internal/repo/memory"
)

var testNow = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func entry(id, user, date, start, end, main, sub string) core.TimeEntry {
	e := core.TimeEntry{ID: id, UserID: user, CreatedAt: testNow, UpdatedAt: testNow}
	if err := e.Apply(core.EntryDraft{Date: date, StartTime: start, EndTime: end, MainCategoryID: main, SubCategoryID: sub}); err != nil {
		panic(err)
	}
	return e
}

func run(t *testing.T, store repo.Store, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(Env{
		Open: func(context.Context) (repo.Store, error) { return store, nil },
		Now:  func() time.Time { return testNow },
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func sampleStore() *memory.Store {
	return memory.New([]core.TimeEntry{
		entry("e1", "2", "2024-03-04", "09:00", "10:30", "1", "2"),
		entry("e2", "2", "2024-03-05", "13:00", "14:00", "1", "1"),
		entry("e3", "3", "2024-03-04", "09:00", "10:00", "2", "6"),
		entry("e4", "2", "2024-02-10", "09:00", "09:30", "3", "8"),
	})
}

func TestReportText(t *testing.T) {
	out, err := run(t, sampleStore(), "report", "--user", "2")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{"this_week  2024-03-04 .. 2024-03-10", "Development", "  Backend", "1h 30m", " 60.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if last := lines[len(lines)-1]; !strings.HasPrefix(last, "Total") || !strings.HasSuffix(last, "2h 30m") {
		t.Errorf("last line = %q", last)
	}
}

func TestReportCSV(t *testing.T) {
	out, err := run(t, sampleStore(), "report", "--period", "custom", "--start", "2024-02-01", "--end", "2024-03-31", "--format", "csv")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	want := strings.Join([]string{
		"main_category,sub_category,minutes,percentage_of_main",
		"Development,Backend,90,60.0",
		"Development,Frontend,60,40.0",
		"Meetings,Team Meeting,60,100.0",
		"Documentation,Technical Specifications,30,100.0",
	}, "\n") + "\n"
	if out != want {
		t.Errorf("csv =\n%s\nwant\n%s", out, want)
	}
}

func TestReportJSON(t *testing.T) {
	out, err := run(t, sampleStore(), "report", "--period", "last-month", "--format", "json")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var a analytics.Analytics
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.TotalDuration != 30 || a.StartDate != "2024-02-01" || a.EndDate != "2024-02-29" {
		t.Errorf("unexpected analytics: %+v", a)
	}
}

func TestReportFlagErrors(t *testing.T) {
	if _, err := run(t, sampleStore(), "report", "--period", "custom", "--start", "2024-02-01"); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("half custom range: err = %v", err)
	}
	if _, err := run(t, sampleStore(), "report", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := run(t, sampleStore(), "report", "extra"); err == nil {
		t.Error("expected error for positional argument")
	}
}

func TestRoster(t *testing.T) {
	out, err := run(t, sampleStore(), "roster")
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want header + 3 users:\n%s", len(lines), out)
	}
	user1 := strings.Fields(lines[2])
	if strings.Join(user1, " ") != "2 user1 user 3 3h 0m 2024-03-05" {
		t.Errorf("user1 row = %q", lines[2])
	}
	if !strings.HasSuffix(lines[1], "-") {
		t.Errorf("admin without entries should show no last date: %q", lines[1])
	}
}

func TestSeedOnlyIntoEmptyStore(t *testing.T) {
	store := memory.New(nil)

	out, err := run(t, store, "seed")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "Added 50 entries") {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = run(t, store, "seed", "--seed", "7")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !strings.Contains(out, "already holds 50 entries") {
		t.Fatalf("unexpected output: %q", out)
	}
	all, _ := store.List(context.Background())
	if len(all) != 50 {
		t.Fatalf("entries = %d, want 50", len(all))
	}
}
