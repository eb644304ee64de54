package cmd

import (
	"context"
	"fmt"
	"text/template"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/oneconcern/termstore/pkg/model"
	"github.com/spf13/cobra"
)

var infoTemplate = template.Must(template.New("info").Parse(
	`repository: {{.ID}}
health: {{.Health}}
branches: {{.Branches}}
head: {{.Head}}
store: {{.Store}}
`))

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print information about the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		return withStore(ctx, func(s *store) error {
			info, err := s.repo.Info(ctx)
			if err != nil {
				return err
			}
			location := "in memory"
			if !settings.InMemory() {
				location = fmt.Sprintf("%s (%s)", s.persister.Dir(), units.HumanSize(float64(s.persister.Size())))
			}
			return infoTemplate.Execute(cmd.OutOrStdout(), struct {
				model.RepositoryInfo
				Store string
			}{
				RepositoryInfo: info,
				Store:          location,
			})
		})
	},
}

var healthColors = map[model.Health]*color.Color{
	model.HealthGreen:  color.New(color.FgGreen, color.Bold),
	model.HealthYellow: color.New(color.FgYellow, color.Bold),
	model.HealthRed:    color.New(color.FgRed, color.Bold),
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the repository",
	Long: `Check the health of the repository.

Exits with status 2 when the repository is not operational.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		var health model.Health
		err := withStore(ctx, func(s *store) error {
			health = s.repo.Health(ctx)
			label := health.String()
			if c, ok := healthColors[health]; ok {
				label = c.Sprint(label)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), label); err != nil {
				return err
			}
			if diagnosis := s.repo.Diagnosis(ctx); diagnosis != "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), diagnosis)
				return err
			}
			return nil
		})
		if err != nil {
			return err
		}
		if health == model.HealthRed {
			osExit(2)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd, healthCmd)
}
