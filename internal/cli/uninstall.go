package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/packraft/packraft/pkg/provider"
)

// uninstallCommand creates the "uninstall" command.
func (c *CLI) uninstallCommand() *cobra.Command {
	var yes bool
	var requiredVersion string

	cmd := &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove installed packages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			p, err := c.newProvider(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			ses := newConsoleSession(ctx, logger, false)
			if err := p.GetInstalledPackages(ctx, ses, args[0], provider.PackageFilters{Required: requiredVersion}); err != nil {
				return err
			}
			if len(ses.packages) == 0 {
				printInfo("%s is not installed", args[0])
				return nil
			}

			if !yes && isTerminal(os.Stdin) {
				names := make([]string, len(ses.packages))
				for i, pkg := range ses.packages {
					names[i] = pkg.ID + " " + pkg.Version
				}
				var proceed bool
				confirm := huh.NewConfirm().
					Title(fmt.Sprintf("Uninstall %d packages?", len(ses.packages))).
					Description(strings.Join(names, "\n")).
					Value(&proceed)
				if err := confirm.Run(); err != nil {
					return err
				}
				if !proceed {
					printInfo("Uninstall aborted")
					return nil
				}
			}

			for _, pkg := range ses.packages {
				if err := p.UninstallPackage(ctx, ses, pkg.FastPath); err != nil {
					return err
				}
				printSuccess("Removed %s %s", StyleHighlight.Render(pkg.ID), pkg.Version)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().StringVar(&requiredVersion, "required-version", "", "remove only this version")
	return cmd
}
