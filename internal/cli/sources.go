package cli

import (
	"github.com/spf13/cobra"

	"github.com/packraft/packraft/pkg/config"
)

// sourcesCommand creates the "sources" command group.
func (c *CLI) sourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage registered package sources",
	}

	cmd.AddCommand(c.sourcesListCommand())
	cmd.AddCommand(c.sourcesAddCommand())
	cmd.AddCommand(c.sourcesRemoveCommand())
	cmd.AddCommand(c.sourcesResolveCommand())

	return cmd
}

// sourcesListCommand creates the "sources list" subcommand.
func (c *CLI) sourcesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.newProvider(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			ses := newConsoleSession(ctx, loggerFromContext(ctx), false)
			if err := p.ResolvePackageSources(ctx, ses, nil); err != nil {
				return err
			}
			if len(ses.sources) == 0 {
				printInfo("No sources registered")
				printNextStep("Add one", appName+" sources add <name> <location>")
				return nil
			}
			cmd.Println(renderSources(ses.sources))
			return nil
		},
	}
}

// sourcesAddCommand creates the "sources add" subcommand.
func (c *CLI) sourcesAddCommand() *cobra.Command {
	var trusted, skipValidate bool

	cmd := &cobra.Command{
		Use:   "add <name> <location>",
		Short: "Register a package source",
		Long:  `Add registers a source under a name. The location is a directory of .raft archives or the base URL of a feed server; URLs are probed for reachability unless --skip-validate is set.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.newProvider(ctx, func(cfg *config.Config) {
				if skipValidate {
					cfg.SkipValidate = true
				}
			})
			if err != nil {
				return err
			}
			defer p.Close()

			ses := newConsoleSession(ctx, loggerFromContext(ctx), false)
			if err := p.AddPackageSource(ctx, ses, args[0], args[1], trusted); err != nil {
				return err
			}
			printSuccess("Registered source %s", StyleHighlight.Render(args[0]))
			printDetail("Location: %s", args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&trusted, "trusted", false, "mark the source as trusted")
	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "skip the reachability probe")
	return cmd
}

// sourcesRemoveCommand creates the "sources remove" subcommand.
func (c *CLI) sourcesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a registered source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.newProvider(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			ses := newConsoleSession(ctx, loggerFromContext(ctx), false)
			if err := p.RemovePackageSource(ctx, ses, args[0]); err != nil {
				return err
			}
			printSuccess("Removed source %s", args[0])
			return nil
		},
	}
}

// sourcesResolveCommand creates the "sources resolve" subcommand.
func (c *CLI) sourcesResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [token...]",
		Short: "Show which sources a set of tokens selects",
		Long:  `Resolve expands source tokens (names, paths, or URLs) the way search and install do, and prints the selection. With no tokens it shows every registered source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.newProvider(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			ses := newConsoleSession(ctx, loggerFromContext(ctx), false)
			if err := p.ResolvePackageSources(ctx, ses, args); err != nil {
				return err
			}
			if len(ses.sources) == 0 {
				printInfo("No sources resolved")
				return nil
			}
			cmd.Println(renderSources(ses.sources))
			return nil
		},
	}
}
