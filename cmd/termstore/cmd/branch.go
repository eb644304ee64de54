package cmd

import (
	"context"
	"fmt"
	"io"
	"text/template"

	"github.com/oneconcern/termstore/pkg/model"
	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Commands to manage branches",
	Long: `Commands to manage the branches of a repository.

Branches form a tree rooted at MAIN. A child branch forks from its parent at the time it is created.`,
}

var branchCreateCmd = &cobra.Command{
	Use:   "create PARENT NAME",
	Short: "Create a branch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withStore(ctx, func(s *store) error {
			b, err := s.branches().CreateBranch(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("create branch: %w", err)
			}
			return printBranch(cmd.OutOrStdout(), b)
		})
	},
}

var branchDeleteCmd = &cobra.Command{
	Use:   "delete PATH",
	Short: "Delete a branch and all its descendants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withStore(ctx, func(s *store) error {
			if err := s.branches().DeleteBranch(ctx, args[0]); err != nil {
				return fmt.Errorf("delete branch: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		})
	},
}

var branchGetCmd = &cobra.Command{
	Use:   "get PATH",
	Short: "Get a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withStore(ctx, func(s *store) error {
			b, err := s.repo.Index().Branch(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get branch: %w", err)
			}
			return printBranch(cmd.OutOrStdout(), b)
		})
	},
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all branches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withStore(ctx, func(s *store) error {
			branches, err := s.branches().Branches(ctx)
			if err != nil {
				return err
			}
			for _, b := range branches {
				if err = printBranch(cmd.OutOrStdout(), b); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var branchTemplate = template.Must(template.New("branch").Parse(
	`{{.Path}}, base: {{.BaseTimestamp}}, head: {{.HeadTimestamp}}{{if .Deleted}}, deleted{{end}}
`))

func printBranch(w io.Writer, b model.Branch) error {
	return branchTemplate.Execute(w, b)
}

func init() {
	branchCmd.AddCommand(branchCreateCmd, branchDeleteCmd, branchGetCmd, branchListCmd)
	rootCmd.AddCommand(branchCmd)
}
