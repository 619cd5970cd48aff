package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/garminetl/internal/pipeline"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

var extractCmd = stageCommand("extract", pipeline.StageRaw,
	"Copy the allow-listed tables out of the GarminDB databases",
	`Open each configured database read-only, drop empty tables, keep the tables listed in
the schema and write one snapshot per table into <data-dir>/raw.`)

var cleanCmd = stageCommand("clean", pipeline.StageInterim,
	"Clean the raw snapshots",
	`Drop duplicate tables, empty and constant columns, and data before the cutoff; coerce
dates, times and durations; align the monitoring clocks. Writes <data-dir>/interim.`)

var transformCmd = stageCommand("transform", pipeline.StageProcessed,
	"Build the monitoring, day, week and month tables",
	`Merge monitoring signals on a minute grid with short gaps interpolated, merge the daily
tables, add the running rollup, drop days with too little data, resample to weeks and
months and round for display. Writes <data-dir>/processed.`)

func stageCommand(use, stage, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *AppContext) error {
				m, err := app.Runner().Run(ctx, stage)
				if err != nil {
					return err
				}
				printManifests(cmd.OutOrStdout(), m)
				return nil
			})
		},
	}
}

// withApp builds the app context for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *AppContext) error) error {
	ctx := cmd.Context()
	app, err := NewAppContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.WithoutCancel(ctx)); err != nil {
			app.Log.WithError(err).Warn("failed to flush metrics")
		}
	}()
	return fn(ctx, app)
}

func printManifests(w io.Writer, ms ...*ports.Manifest) {
	for _, m := range ms {
		var rows int
		for _, t := range m.Tables {
			rows += t.Rows
		}
		fmt.Fprintf(w, "%-10s %3d tables %9d rows  %s  run %s\n",
			m.Stage, len(m.Tables), rows, m.FinishedAt.Sub(m.StartedAt).Round(time.Millisecond), m.RunID)
	}
}
