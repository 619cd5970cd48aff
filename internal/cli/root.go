package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "garminetl",
	Short: "Extract, clean and summarize GarminDB health data",
	Long: `garminetl turns the SQLite databases written by GarminDB into daily, weekly and
monthly summary tables, and serves a local dashboard that tracks goals over them.

Stages write their tables under the data directory:
  raw        tables copied from the databases (extract)
  interim    cleaned tables (clean)
  processed  monitoring, day, week, month and running tables (transform)`,
	SilenceUsage: true,
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/garminetl/config.yaml)")
	pf.String("data-dir", "", "directory holding the stage snapshots (default $XDG_DATA_HOME/garminetl)")
	pf.String("db-dir", "", "directory holding the GarminDB databases (default ~/HealthData/DBs)")
	pf.String("schema", "", "schema mapping file (default: embedded)")
	pf.String("log-level", "", "log level: debug, info, warn, error (default info)")

	for key, flag := range map[string]string{
		"data_dir":  "data-dir",
		"db_dir":    "db-dir",
		"schema":    "schema",
		"log_level": "log-level",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.AddCommand(extractCmd, cleanCmd, transformCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(schemaCmd)
}
