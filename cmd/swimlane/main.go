package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dori/swimlane/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// globalOptions are the persistent flags every command shares
type globalOptions struct {
	configFile string
	project    string
	backend    string
	theme      string
	logLevel   string
}

// flagKeys maps persistent flags to the config keys they override
var flagKeys = map[string]string{
	"project":   "project",
	"backend":   "backend",
	"theme":     "theme",
	"log-level": "log.level",
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "swimlane",
		Short: "A drag-and-drop kanban board for the terminal",
		Long: `swimlane shows a project's tasks as four columns (To Do, In Progress,
In Review, Done) and moves them between columns with the keyboard or mouse.

Tasks live in a local SQLite database, or behind another swimlane's HTTP API
when the http backend is configured.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file, merged over the global and project files")
	flags.StringVarP(&opts.project, "project", "p", "", "project to open")
	flags.StringVar(&opts.backend, "backend", "", "task backend (sqlite, http)")
	flags.StringVar(&opts.theme, "theme", "", "theme (nord, dracula, gruvbox, catppuccin)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newBoardCmd(opts),
		newServeCmd(opts),
		newAddCmd(opts),
		newProjectsCmd(opts),
		newTokenCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig merges the config sources with the flags that were set
// explicitly on the command line
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := map[string]any{}
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: o.configFile,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "swimlane %s\n", Version)
		},
	}
}
