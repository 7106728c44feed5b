package backend

import (
	"context"
	"path/filepath"
	"testing"

	"timesheet/internal/config"
	"timesheet/internal/core"
	"timesheet/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "x.db",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "timesheet",
		AMQPQueue:    "entry_events",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.AMQPQueue != "entry_events" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x/", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "entries.json")

	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, DataFile: path, SeedMockData: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer res.Cleanup()

	if res.Events {
		t.Fatal("no AMQP URL, no events")
	}
	entries, err := res.Store.List(ctx)
	if err != nil || len(entries) == 0 {
		t.Fatalf("seeded store empty: %d entries, err %v", len(entries), err)
	}

	user := core.User{ID: "2", Role: core.RoleUser}
	e, err := res.Entries.CreateEntry(ctx, user, core.EntryDraft{
		Date: "2024-03-04", StartTime: "09:00", EndTime: "10:00",
		MainCategoryID: "1", SubCategoryID: "1",
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := res.Store.Get(ctx, e.ID); err != nil {
		t.Fatalf("entry not in the store: %v", err)
	}
}

func TestCreateMemoryBackendWithoutFile(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	entries, _ := res.Store.List(context.Background())
	if len(entries) != 0 {
		t.Fatalf("unseeded store has %d entries", len(entries))
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "timesheet.db"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Store.(*storage.SQLiteRepository); !ok {
		t.Fatalf("store is %T", res.Store)
	}
	tax, err := res.Store.Taxonomy(ctx)
	if err != nil || len(tax.Mains) == 0 {
		t.Fatalf("taxonomy not seeded: %+v, %v", tax, err)
	}
}
