package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/fastpath"
)

// downloadCommand creates the "download" command.
func (c *CLI) downloadCommand() *cobra.Command {
	var flags packageFlags
	var output string

	cmd := &cobra.Command{
		Use:   "download <package>",
		Short: "Download a package archive without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			p, err := c.newProvider(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			ses := newConsoleSession(ctx, logger, isTerminal(os.Stderr))

			fp := args[0]
			if !fastpath.IsFastpath(fp) {
				lookup := newConsoleSession(ctx, logger, false)
				if err := p.FindPackage(ctx, lookup, args[0], flags.filters()); err != nil {
					return err
				}
				if len(lookup.packages) == 0 {
					return errors.New(errors.ErrCodePackageNotFound, "package %q not found on any selected source", args[0])
				}
				fp = lookup.packages[0].FastPath
			}

			if err := p.DownloadPackage(ctx, ses, fp, output); err != nil {
				return err
			}
			printSuccess("Downloaded %s", args[0])
			printFile(output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", ".", "target file or directory")
	return cmd
}
