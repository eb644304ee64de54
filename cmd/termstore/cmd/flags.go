package cmd

import (
	"github.com/oneconcern/termstore/pkg/config"
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		configFile string
	}
	branch struct {
		path string
	}
	doc struct {
		typ string
	}
	importing struct {
		file      string
		threshold int
		author    string
		comment   string
	}
	config struct {
		file string
	}
}

var params flagsT

func addConfigFlag(cmd *cobra.Command) string {
	const c = "config"
	cmd.PersistentFlags().StringVar(&params.root.configFile, c, "", "Config file (defaults to termstore.yaml, searched in ., $HOME/.termstore and /etc/termstore)")
	return c
}

func addRepositoryFlag(cmd *cobra.Command) string {
	const c = "repository"
	cmd.PersistentFlags().String(c, config.Defaults().Repository, "The identifier of the repository")
	bindFlag(config.KeyRepository, cmd.PersistentFlags(), c)
	return c
}

func addStoreDirFlag(cmd *cobra.Command) string {
	const c = "store-dir"
	cmd.PersistentFlags().String(c, "", "The directory of the persistent store. The store is kept in memory when empty")
	bindFlag(config.KeyStoreDir, cmd.PersistentFlags(), c)
	return c
}

func addLogLevelFlag(cmd *cobra.Command) string {
	const c = "loglevel"
	cmd.PersistentFlags().String(c, config.Defaults().LogLevel, "The logging level: debug, info, warn, error or none")
	bindFlag(config.KeyLogLevel, cmd.PersistentFlags(), c)
	return c
}

func addMetricsFlag(cmd *cobra.Command) string {
	const c = "metrics"
	cmd.PersistentFlags().Bool(c, false, "Collect metrics and report them on exit")
	bindFlag(config.KeyMetricsEnabled, cmd.PersistentFlags(), c)
	return c
}

func addBranchFlag(cmd *cobra.Command) string {
	const c = "branch"
	cmd.Flags().StringVar(&params.branch.path, c, "MAIN", "The branch path")
	return c
}

func addTypeFlag(cmd *cobra.Command) string {
	const c = "type"
	cmd.Flags().StringVar(&params.doc.typ, c, "", "The type of the document")
	return c
}

func addImportFileFlag(cmd *cobra.Command) string {
	const c = "file"
	cmd.Flags().StringVar(&params.importing.file, c, "", "The YAML file holding the documents to import")
	return c
}

func addThresholdFlag(cmd *cobra.Command) string {
	const c = "threshold"
	cmd.Flags().IntVar(&params.importing.threshold, c, -1, "Commit every time this number of objects is staged. Defaults to the commit_threshold setting")
	return c
}

func addAuthorFlag(cmd *cobra.Command) string {
	const c = "author"
	cmd.Flags().StringVar(&params.importing.author, c, "", "The author of commits")
	return c
}

func addCommentFlag(cmd *cobra.Command) string {
	const c = "comment"
	cmd.Flags().StringVar(&params.importing.comment, c, "", "The comment of commits")
	return c
}

func addConfigFileFlag(cmd *cobra.Command) string {
	const c = "file"
	cmd.Flags().StringVar(&params.config.file, c, "", "Write the configuration to this file instead of stdout")
	return c
}

func requireFlags(cmd *cobra.Command, flags ...string) {
	for _, flag := range flags {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
}
