package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run extract, clean and transform in order",
	Long: `Run every stage in order under one run id.

With --every the pipeline runs immediately and then at that interval; with --cron it
runs on the cron schedule. Both keep running until interrupted and runs never overlap.

Examples:
  garminetl run
  garminetl run --every 6h
  garminetl run --cron "30 5 * * *"`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

var (
	runEvery time.Duration
	runCron  string
)

func init() {
	runCmd.Flags().DurationVar(&runEvery, "every", 0, "re-run the pipeline at this interval")
	runCmd.Flags().StringVar(&runCron, "cron", "", "re-run the pipeline on this cron schedule")
	runCmd.MarkFlagsMutuallyExclusive("every", "cron")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		once := func() error {
			ms, err := app.Runner().RunAll(ctx)
			printManifests(cmd.OutOrStdout(), ms...)
			return err
		}
		if runEvery <= 0 && runCron == "" {
			return once()
		}

		scheduler := gocron.NewScheduler(time.Local)
		scheduler.SingletonModeAll()
		var job *gocron.Scheduler
		if runCron != "" {
			job = scheduler.Cron(runCron)
		} else {
			job = scheduler.Every(runEvery)
		}
		if _, err := job.Do(func() {
			if err := once(); err != nil {
				app.Log.WithError(err).Error("scheduled run failed")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule pipeline: %w", err)
		}

		app.Log.WithField("every", scheduleLabel()).Info("pipeline scheduled")
		scheduler.StartAsync()
		<-ctx.Done()
		scheduler.Stop()
		app.Log.Info("scheduler stopped")
		return nil
	})
}

func scheduleLabel() string {
	if runCron != "" {
		return runCron
	}
	return runEvery.String()
}
