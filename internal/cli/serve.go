package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/packraft/packraft/pkg/feedserver"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <directory>",
		Short: "Serve a directory of archives as an HTTP feed",
		Long:  `Serve exposes a directory of .raft archives over the feed wire protocol, so other packraft instances can register it as an HTTP source.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			index, err := feedserver.NewDirIndex(args[0])
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:    addr,
				Handler: feedserver.New(index, logger.Debugf).Handler(),
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Infof("serving %s on %s", args[0], addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
