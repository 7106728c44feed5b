package ctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"timesheet/internal/analytics"
	"timesheet/internal/repo"
)

func newRosterCmd(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "List users with their all-time totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), env, func(store repo.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list entries: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-4s%-12s%-7s%7s%11s  %s\n", "ID", "USER", "ROLE", "ENTRIES", "TOTAL", "LAST")
				for _, u := range env.Users {
					t := analytics.Totals(entries, u.ID)
					last := t.LastDate
					if last == "" {
						last = "-"
					}
					fmt.Fprintf(out, "%-4s%-12s%-7s%7d%11s  %s\n",
						u.ID, u.Username, u.Role, t.EntryCount, analytics.FormatDuration(t.TotalMinutes), last)
				}
				return nil
			})
		},
	}
}
