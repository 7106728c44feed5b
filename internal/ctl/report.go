package ctl

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"timesheet/internal/analytics"
	"timesheet/internal/core"
	"timesheet/internal/repo"
)

type reportOptions struct {
	period string
	start  string
	end    string
	user   string
	format string
}

func newReportCmd(env Env) *cobra.Command {
	opts := reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show time per category for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, env, opts)
		},
	}
	cmd.Flags().StringVar(&opts.period, "period", string(analytics.ThisWeek), "this_week, last_week, this_month, last_month or custom")
	cmd.Flags().StringVar(&opts.start, "start", "", "Custom period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.end, "end", "", "Custom period end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.user, "user", "", "Only this user id (default: everyone)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, csv, json")
	return cmd
}

// reportRange resolves the period flags. Custom bounds must come together.
func reportRange(opts reportOptions, env Env) (analytics.PeriodKind, core.DateRange, error) {
	kind := analytics.ParsePeriodKind(opts.period)
	var custom *core.DateRange
	if kind == analytics.Custom && (opts.start != "" || opts.end != "") {
		if opts.start == "" || opts.end == "" {
			return "", core.DateRange{}, fmt.Errorf("%w: --start and --end go together", core.ErrInvalidDate)
		}
		if !core.ValidDate(opts.start) || !core.ValidDate(opts.end) {
			return "", core.DateRange{}, fmt.Errorf("%w: --start and --end must be YYYY-MM-DD", core.ErrInvalidDate)
		}
		custom = &core.DateRange{Start: opts.start, End: opts.end}
	}
	return kind, analytics.Resolve(kind, env.Now(), custom), nil
}

func runReport(cmd *cobra.Command, env Env, opts reportOptions) error {
	kind, rng, err := reportRange(opts, env)
	if err != nil {
		return err
	}

	var a analytics.Analytics
	err = withStore(cmd.Context(), env, func(store repo.Store) error {
		entries, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		tax, err := store.Taxonomy(cmd.Context())
		if err != nil {
			return fmt.Errorf("load taxonomy: %w", err)
		}
		a = analytics.AggregateTaxonomy(entries, strings.TrimSpace(opts.user), rng, tax)
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case "csv":
		return writeReportCSV(out, a)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	case "text", "":
		writeReportText(out, kind, a)
		return nil
	default:
		return fmt.Errorf("unknown format %q: use text, csv or json", opts.format)
	}
}

const rule = "--------------------------------------------"

func writeReportText(w io.Writer, kind analytics.PeriodKind, a analytics.Analytics) {
	fmt.Fprintf(w, "%s  %s .. %s\n", kind, a.StartDate, a.EndDate)
	fmt.Fprintln(w, rule)
	for _, cs := range a.CategorySummaries {
		fmt.Fprintf(w, "%-28s%9s %5.1f%%\n", cs.MainCategory.Name, analytics.FormatDuration(cs.TotalDuration), cs.Percentage)
		for _, ss := range cs.SubCategories {
			fmt.Fprintf(w, "  %-26s%9s %5.1f%%\n", ss.SubCategory.Name, analytics.FormatDuration(ss.Duration), ss.Percentage)
		}
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-28s%9s\n", "Total", analytics.FormatDuration(a.TotalDuration))
}

func writeReportCSV(w io.Writer, a analytics.Analytics) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"main_category", "sub_category", "minutes", "percentage_of_main"})
	for _, cs := range a.CategorySummaries {
		for _, ss := range cs.SubCategories {
			cw.Write([]string{
				cs.MainCategory.Name,
				ss.SubCategory.Name,
				strconv.Itoa(ss.Duration),
				strconv.FormatFloat(ss.Percentage, 'f', 1, 64),
			})
		}
	}
	cw.Flush()
	return cw.Error()
}
