package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/garminetl/internal/goals"
	"github.com/emiliopalmerini/garminetl/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	Long: `Start the local dashboard over the processed tables.

Examples:
  garminetl serve                       # Start on default port 8080
  garminetl serve --port 3000 --year 2023 --coef 0.5`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.IntP("port", "p", 0, "port to listen on (default 8080)")
	f.Int("year", 0, "default reference year for goals (default: the year before the latest)")
	f.Float64("coef", 0, "default goal multiplier in [-2, 2]")
	_ = v.BindPFlag("serve.port", f.Lookup("port"))
	_ = v.BindPFlag("serve.reference_year", f.Lookup("year"))
	_ = v.BindPFlag("serve.coefficient", f.Lookup("coef"))
}

func runServe(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		opts, err := serveOptions(app)
		if err != nil {
			return err
		}
		return web.NewServer(app.Store, opts, app.Log).Start(ctx)
	})
}

func serveOptions(app *AppContext) (web.Options, error) {
	s := app.Config.Serve
	if s.Coefficient < -2 || s.Coefficient > 2 {
		return web.Options{}, fmt.Errorf("goal multiplier %v outside [-2, 2]", s.Coefficient)
	}
	tr := app.Schema.Transform
	return web.Options{
		Port:          s.Port,
		ReferenceYear: s.ReferenceYear,
		Coefficient:   s.Coefficient,
		Key:           tr.Daily.Key,
		MinWeekDays:   tr.Resample.MinWeekDays,
		MinMonthDays:  tr.Resample.MinMonthDays,
		SumColumns:    tr.Resample.SumColumns,
		Metrics:       goals.DefaultMetrics,
	}, nil
}
