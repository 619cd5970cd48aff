package cli

import (
	"context"
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/garminetl/internal/goals"
	"github.com/emiliopalmerini/garminetl/internal/pipeline"
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Print goal thresholds from the weekly or monthly table",
	Long: `Print goal = mean ± multiplier × standard deviation for every tracked metric.
The mean covers the reference year, the standard deviation every eligible bucket.

Examples:
  garminetl goals
  garminetl goals --period monthly --year 2022 --coef 0.5`,
	Args: cobra.NoArgs,
	RunE: runGoals,
}

var (
	goalsPeriod string
	goalsYear   int
	goalsCoef   float64
)

func init() {
	goalsCmd.Flags().StringVar(&goalsPeriod, "period", "weekly", "bucket table: weekly or monthly")
	goalsCmd.Flags().IntVar(&goalsYear, "year", 0, "reference year (default: the year before the latest)")
	goalsCmd.Flags().Float64Var(&goalsCoef, "coef", 0, "goal multiplier in [-2, 2]")
}

func runGoals(cmd *cobra.Command, args []string) error {
	if goalsCoef < -2 || goalsCoef > 2 {
		return fmt.Errorf("goal multiplier %v outside [-2, 2]", goalsCoef)
	}
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		res := app.Schema.Transform.Resample
		table, minDays := pipeline.TableWeeks, res.MinWeekDays
		switch goalsPeriod {
		case pipeline.Weekly.String():
		case pipeline.Monthly.String():
			table, minDays = pipeline.TableMonths, res.MinMonthDays
		default:
			return fmt.Errorf("unknown period %q, want weekly or monthly", goalsPeriod)
		}

		f, err := app.Store.LoadTable(ctx, pipeline.StageProcessed, table)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", table, err)
		}
		key := app.Schema.Transform.Daily.Key
		eligible, err := goals.Eligible(f, pipeline.ColDaysResampled, minDays)
		if err != nil {
			return err
		}
		year := goals.ReferenceYear(goals.Years(eligible, key), goalsYear)
		gs, err := goals.Compute(eligible, key, year, goalsCoef, goals.DefaultMetrics)
		if err != nil {
			return fmt.Errorf("failed to compute goals: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s goals, reference year %d, multiplier %.1f, %d of %d buckets eligible\n\n",
			goalsPeriod, year, goalsCoef, eligible.Len(), f.Len())
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "METRIC\tUNIT\tMEAN\tSTD\tGOAL\tBUCKETS")
		fmt.Fprintln(w, "------\t----\t----\t---\t----\t-------")
		for _, g := range gs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
				g.Metric.Label, g.Metric.Unit, dash(g.Mean), dash(g.Std), dash(g.Goal), g.Samples)
		}
		return w.Flush()
	})
}

func dash(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}
