package cmd

import (
	"context"
	"fmt"

	"github.com/oneconcern/termstore/pkg/core"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// importFile is the layout of YAML files accepted by the import command
type importFile struct {
	Components []model.Component `yaml:"components"`
	Records    []model.Record    `yaml:"records"`
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import documents into a branch",
	Long: `Bulk load components and records from a YAML file into a branch.

Documents are staged in a transaction which commits every time the staged objects reach a threshold:
one import may yield several commits. The number of commits is printed when done.

Example file:

components:
  - id: "138875005"
    type: concept
    active: true
records:
  - key: snomedct
    type: codesystem
    body:
      version: "2024-01-31"
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		docs, err := readImportFile(appFs, params.importing.file)
		if err != nil {
			return err
		}
		threshold := params.importing.threshold
		if threshold < 0 {
			threshold = settings.CommitThreshold
		}

		return withStore(ctx, func(s *store) (err error) {
			bc, err := s.repo.OpenBranch(ctx, params.branch.path)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, bc.Close()) }()

			tx, err := bc.OpenTransaction(ctx,
				core.WithAuthor(params.importing.author),
				core.WithComment(params.importing.comment),
				core.WithGroupID(model.NewCommitID()),
			)
			if err != nil {
				return err
			}
			capped := core.NewCappedTransaction(tx, threshold)
			abort := func(err error) error {
				capped.Rollback()
				return multierr.Append(err, capped.Close(ctx))
			}

			for _, doc := range docs {
				if _, err = capped.Add(ctx, doc); err != nil {
					return abort(fmt.Errorf("import %s %q: %w", doc.DocumentType(), doc.DocumentID(), err))
				}
			}
			if _, err = capped.Commit(ctx); err != nil {
				return abort(err)
			}
			if err = capped.Close(ctx); err != nil {
				return err
			}

			logger.Info("import done", zap.Int("documents", len(docs)), zap.Int("commits", capped.Commits()))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents in %d commits\n", len(docs), capped.Commits())
			return err
		})
	},
}

func readImportFile(fs afero.Fs, pth string) ([]model.Document, error) {
	data, err := afero.ReadFile(fs, pth)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	var f importFile
	if err = yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse import file %s: %w", pth, err)
	}

	docs := make([]model.Document, 0, len(f.Components)+len(f.Records))
	for _, c := range f.Components {
		docs = append(docs, c)
	}
	for _, r := range f.Records {
		docs = append(docs, r)
	}
	return docs, nil
}

func init() {
	requireFlags(importCmd, addImportFileFlag(importCmd))
	addBranchFlag(importCmd)
	addThresholdFlag(importCmd)
	addAuthorFlag(importCmd)
	addCommentFlag(importCmd)
	rootCmd.AddCommand(importCmd)
}
