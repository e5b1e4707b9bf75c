package cli

import (
	"github.com/spf13/cobra"
)

// installedCommand creates the "installed" command.
func (c *CLI) installedCommand() *cobra.Command {
	var flags packageFlags

	cmd := &cobra.Command{
		Use:   "installed [name]",
		Short: "List installed packages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			p, err := c.newProvider(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			ses := newConsoleSession(ctx, logger, false)
			if err := p.GetInstalledPackages(ctx, ses, name, flags.filters()); err != nil {
				return err
			}
			if len(ses.packages) == 0 {
				printInfo("No packages installed")
				return nil
			}
			cmd.Println(renderInstalled(ses.packages))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
