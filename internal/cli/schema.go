package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/garminetl/internal/config"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the effective schema mapping as YAML",
	Long: `Print the schema mapping in use: the file given with --schema, or the embedded
default. Redirect the output to a file to start a custom mapping.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if cfg.Schema == "" {
		_, err := cmd.OutOrStdout().Write(config.DefaultSchemaYAML())
		return err
	}
	schema, err := config.LoadSchema(cfg.Schema)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}
