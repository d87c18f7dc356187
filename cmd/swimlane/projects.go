package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dori/swimlane/internal/app"
	"github.com/dori/swimlane/internal/logging"
	"github.com/spf13/cobra"
)

func newProjectsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects and their task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			client, closeClient, err := app.OpenClient(cfg, logging.Discard())
			if err != nil {
				return err
			}
			defer closeClient()

			projects, err := client.ListProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "NAME", "TASKS")
			for _, p := range projects {
				name := p.Name
				if p.ID == cfg.Project {
					name += " *"
				}
				t.Row(p.ID, name, strconv.Itoa(p.TaskCount))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}
