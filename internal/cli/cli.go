// Package cli implements the packraft command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/packraft/packraft/pkg/buildinfo"
	"github.com/packraft/packraft/pkg/config"
	"github.com/packraft/packraft/pkg/provider"
)

// appName is the application name used for directories and display.
const appName = "packraft"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered. The logger is attached to the command context so every
// command shares one configured instance.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           appName,
		Short:         "Packraft finds and installs packages from multiple feeds",
		Long:          `Packraft is a multi-feed package manager: it searches directory and HTTP package sources, resolves dependency closures, and drives installs through an external executor.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(log.DebugLevel)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.findCommand())
	root.AddCommand(c.installCommand())
	root.AddCommand(c.uninstallCommand())
	root.AddCommand(c.downloadCommand())
	root.AddCommand(c.installedCommand())
	root.AddCommand(c.sourcesCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newProvider loads configuration, applies any command-level overrides,
// and wires the operation provider. Callers own Close.
func (c *CLI) newProvider(ctx context.Context, overrides ...func(*config.Config)) (*provider.Provider, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	return provider.New(ctx, cfg)
}

// versionCommand prints full build information, beyond what --version
// shows.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(appName)
			cmd.Println(buildinfo.String())
		},
	}
}

// isTerminal reports whether w is an interactive terminal. Pickers and
// confirmation prompts are skipped when it is not.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
