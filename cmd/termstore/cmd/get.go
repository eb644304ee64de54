package cmd

import (
	"context"
	"fmt"

	"github.com/oneconcern/termstore/pkg/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var getCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Get a document from a branch",
	Long: `Get a document from a branch, printed as YAML.

The branch may be any branch path expression, e.g. "MAIN/a^" to read a branch at its base,
or "MAIN/a^..MAIN/a" to read the end of a range.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withStore(ctx, func(s *store) error {
			return s.repo.WithBranchContext(ctx, params.branch.path, func(bc *core.BranchContext) error {
				doc, err := bc.Get(ctx, params.doc.typ, args[0])
				if err != nil {
					return err
				}
				out, err := yaml.Marshal(doc)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
				return err
			})
		})
	},
}

func init() {
	requireFlags(getCmd, addTypeFlag(getCmd))
	addBranchFlag(getCmd)
	rootCmd.AddCommand(getCmd)
}
