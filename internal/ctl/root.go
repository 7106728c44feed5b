// Package ctl implements timesheetctl, the operator CLI that reports on and
// seeds the configured store without going through the HTTP API.
package ctl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"timesheet/internal/backend"
	"timesheet/internal/config"
	"timesheet/internal/core"
	"timesheet/internal/repo"
	"timesheet/internal/users"
)

// Env is what the commands run against.
type Env struct {
	Open  func(ctx context.Context) (repo.Store, error)
	Users []core.User
	Now   func() time.Time
}

// NewRootCmd builds the command tree over env.
func NewRootCmd(env Env) *cobra.Command {
	if env.Now == nil {
		env.Now = time.Now
	}
	if env.Users == nil {
		env.Users = users.DemoUsers()
	}

	root := &cobra.Command{
		Use:   "timesheetctl",
		Short: "Inspect and seed the timesheet store",
		Long: `timesheetctl reads the store selected by DATA_BACKEND and friends
(the same environment as the server) and prints reports or loads demo data.`,
		SilenceUsage: true,
	}
	root.AddCommand(newReportCmd(env))
	root.AddCommand(newRosterCmd(env))
	root.AddCommand(newSeedCmd(env))
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCmd(Env{Open: openConfigured}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openConfigured opens the store the server would use, without events.
func openConfigured(ctx context.Context) (repo.Store, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	bc.AMQPURL = ""
	// demo data is only loaded by the seed command
	bc.SeedMockData = false

	quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	result, err := backend.NewFactory(quiet).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return result.Store, nil
}

// withStore opens the store for the duration of fn.
func withStore(ctx context.Context, env Env, fn func(repo.Store) error) error {
	store, err := env.Open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
