package cmd

import (
	"context"
	"fmt"

	"github.com/oneconcern/termstore/pkg/core"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all components from a branch",
	Long: `Remove all revision-tracked components from a branch, in a single commit.

Records are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withStore(ctx, func(s *store) error {
			return s.repo.WithBranchContext(ctx, params.branch.path, func(bc *core.BranchContext) (err error) {
				tx, err := bc.OpenTransaction(ctx, core.WithComment("clear contents"))
				if err != nil {
					return err
				}
				defer func() { err = multierr.Append(err, tx.Close(ctx)) }()

				if err = tx.ClearContents(ctx); err != nil {
					return err
				}
				removed := tx.StagedCount()
				commit, err := tx.Commit(ctx)
				if err != nil {
					return err
				}
				if commit == nil {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "nothing to clear")
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d components in commit %s\n", removed, commit.ID)
				return err
			})
		})
	},
}

func init() {
	addBranchFlag(clearCmd)
	rootCmd.AddCommand(clearCmd)
}
