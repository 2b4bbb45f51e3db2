package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/cnharrison/harq/internal/query"
	"github.com/cnharrison/harq/internal/server"
	"github.com/cnharrison/harq/internal/source"
)

func newServeCmd(c *cli) *cobra.Command {
	var poll time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over a JSON HTTP API",
		Long: `Serve the query entry points over HTTP:

  GET /api/requests
  GET /api/entries
  GET /api/responses
  GET /api/payloads
  GET /api/combined
  GET /api/combined/path-exact?path=/api/login
  GET /api/watch            (WebSocket)

Filters are passed as url_pattern, exact_match, url_contains and endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			src, err := c.openSource(ctx)
			if err != nil {
				return err
			}
			srv := server.New(query.NewEngine(src, query.WithLogger(c.log)), c.cfg.Server.Addr,
				server.WithLogger(c.log), server.WithPollInterval(poll))

			if files, ok := src.(*source.FileSource); ok {
				events, err := watchFiles(ctx, c, files)
				if err != nil {
					c.log.Warn("file watching disabled: %v", err)
				} else {
					go srv.Follow(ctx, events)
				}
			}

			return srv.Run(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config, 127.0.0.1:8088)")
	cmd.Flags().DurationVar(&poll, "poll", server.DefaultPollInterval, "refresh interval for /api/watch clients, 0 disables")
	_ = c.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// watchFiles reports changes to the HAR files until ctx is done
func watchFiles(ctx context.Context, c *cli, files *source.FileSource) (<-chan string, error) {
	w, err := source.NewWatcher(files, c.log)
	if err != nil {
		return nil, err
	}
	c.log.Debug("watching %d HAR file(s)", len(w.Paths()))
	go w.Start(ctx)
	return w.Events, nil
}
