package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dori/swimlane/internal/app"
	"github.com/dori/swimlane/internal/logging"
	"github.com/dori/swimlane/internal/model"
	"github.com/spf13/cobra"
)

func newAddCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task>",
		Short: "Add a task without opening the board",
		Long: `add creates a task in the configured project. It works while a board
is open; the board picks the task up on its next refresh.

Quick add syntax:
  Priority:  !low !medium !high !urgent
  Due date:  due:today due:tomorrow due:friday due:2025-01-15
  Column:    #todo #doing #review #done (default #todo)
  Assignee:  @name`,
		Example: `  swimlane add "Review PR !high due:tomorrow #review"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			now := time.Now()
			nt := model.ParseQuickAdd(strings.Join(args, " "), now)
			if nt.Title == "" {
				return errors.New("a task needs a title")
			}
			if nt.Status == "" {
				nt.Status = model.StatusTodo
			}

			client, closeClient, err := app.OpenClient(cfg, logging.Discard())
			if err != nil {
				return err
			}
			defer closeClient()

			task, err := client.CreateTask(cmd.Context(), cfg.Project, nt)
			if err != nil {
				return fmt.Errorf("create task: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created: %s\n", task.Title)
			fmt.Fprintf(out, "  Status: %s\n", task.Status.Label())
			if task.Priority != "" {
				fmt.Fprintf(out, "  Priority: %s\n", task.Priority)
			}
			if task.DueDate != nil {
				fmt.Fprintf(out, "  Due: %s\n", model.FormatDue(*task.DueDate, now))
			}
			if task.AssigneeID != nil {
				fmt.Fprintf(out, "  Assignee: %s\n", *task.AssigneeID)
			}
			return nil
		},
	}
}
