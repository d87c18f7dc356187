package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/swimlane/internal/app"
	"github.com/dori/swimlane/internal/logging"
	"github.com/dori/swimlane/internal/ui"
	"github.com/spf13/cobra"
)

func newBoardCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the board (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, opts)
		},
	}
}

func runBoard(cmd *cobra.Command, opts *globalOptions) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file
	log, closeLog, err := logging.New(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.LogPath(),
	})
	if err != nil {
		return err
	}
	defer closeLog()

	application, err := app.New(cfg, log)
	if err != nil {
		if errors.Is(err, app.ErrAlreadyRunning) {
			return fmt.Errorf("%w (data dir %s)", err, cfg.DataDir)
		}
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	log.WithField("backend", cfg.Backend).WithField("project", cfg.Project).Info("board starting")

	p := tea.NewProgram(
		ui.NewRootModel(ctx, application),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run board: %w", err)
	}
	log.Info("board closed")
	return nil
}
