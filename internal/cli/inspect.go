package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/garminetl/internal/pipeline"
	"github.com/emiliopalmerini/garminetl/internal/util"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the tables and row counts of each GarminDB database",
	Long: `List every table with its row count in each configured database, before any
filtering. Tables kept by extract are marked with *.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		ex := pipeline.NewExtractor(app.Opener, app.Config.DBDir, app.Schema.Databases, app.Log)
		dbs, err := ex.Inspect(ctx)
		if err != nil {
			return err
		}

		allowed := map[string]bool{}
		for _, db := range app.Schema.Databases {
			for _, t := range db.Tables {
				allowed[db.Key(t)] = true
			}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATABASE\tTABLE\tROWS\tKEPT")
		fmt.Fprintln(w, "--------\t-----\t----\t----")
		for i, db := range dbs {
			for _, t := range db.Tables {
				kept := ""
				if allowed[app.Schema.Databases[i].Key(t.Name)] && t.Rows > 0 {
					kept = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", db.File, t.Name, util.FormatNumber(t.Rows), kept)
			}
		}
		return w.Flush()
	})
}
