// Copyright © 2018 One Concern

// Package cmd implements the termstore command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/oneconcern/termstore/pkg/config"
	"github.com/oneconcern/termstore/pkg/dlogger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "termstore",
	Short: "termstore manages branched terminology repositories",
	Long: `termstore manages terminology content (concepts, descriptions, relationships, members)
in a repository organized as a tree of branches, rooted at MAIN.

Reads are served from point-in-time snapshots of a branch. Writes are staged in a transaction,
then committed atomically.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

var (
	settings config.Settings
	v        = config.New()
	logger   = zap.NewNop()

	// appFs is the file system used to read and write files, patched during tests
	appFs = afero.NewOsFs()

	// used to patch over calls to os.Exit() during test
	osExit = os.Exit
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), err)
		osExit(1)
	}
}

func init() {
	addConfigFlag(rootCmd)
	addRepositoryFlag(rootCmd)
	addStoreDirFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addMetricsFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	explicit := params.root.configFile
	if explicit == "" {
		explicit = os.Getenv(config.EnvConfigFile)
	}
	used, err := config.ReadConfigFile(v, explicit)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	settings, err = config.Load(v)
	if err != nil {
		return err
	}

	logger, err = dlogger.GetLogger(settings.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if used != "" {
		logger.Debug("using config file", zap.String("config", used))
	}
	return nil
}

func bindFlag(key string, flags *pflag.FlagSet, name string) {
	if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("binding flag %q: %v", name, err))
	}
}
