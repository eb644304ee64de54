package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the configuration",
	Long: `Commands to manage the termstore configuration.

Settings are read from termstore.yaml, then from TERMSTORE_* environment variables, then from flags.`,
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a configuration file",
	Long: `Generate a configuration file with the current settings.

The configuration is printed on stdout, unless a file is specified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("serialize config to yaml: %w", err)
		}
		if params.config.file == "" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		if err = afero.WriteFile(appFs, params.config.file, out, 0o644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", params.config.file)
		return err
	},
}

func init() {
	addConfigFileFlag(configGenerateCmd)
	configCmd.AddCommand(configGenerateCmd)
	rootCmd.AddCommand(configCmd)
}
