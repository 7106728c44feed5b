package ctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"timesheet/internal/repo"
	"timesheet/internal/repo/memory"
)

func newSeedCmd(env Env) *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load generated demo entries into an empty store",
		Long: `seed generates the same demo entries the memory backend starts with
and adds them to the configured store. A store that already holds entries is
left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, env, func(store repo.Store) error {
				existing, err := store.List(ctx)
				if err != nil {
					return fmt.Errorf("list entries: %w", err)
				}
				if len(existing) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Store already holds %d entries, nothing to do\n", len(existing))
					return nil
				}
				tax, err := store.Taxonomy(ctx)
				if err != nil {
					return fmt.Errorf("load taxonomy: %w", err)
				}

				entries := memory.MockEntries(env.Now().UTC(), tax, seed)
				for _, e := range entries {
					if err := store.Add(ctx, e); err != nil {
						return fmt.Errorf("add entry %s: %w", e.ID, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d entries\n", len(entries))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for the generated entries")
	return cmd
}
