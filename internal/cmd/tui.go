package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cnharrison/harq/internal/query"
	"github.com/cnharrison/harq/internal/source"
	"github.com/cnharrison/harq/internal/ui"
)

func newTUICmd(c *cli) *cobra.Command {
	var poll time.Duration
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse captured exchanges in the terminal",
		Long: `Browse request/response pairs interactively. The list reloads when a
watched HAR file changes, and every --poll interval for a live proxy.

Keys: / search URL, Tab switch tab, i focus details, c copy curl,
m copy markdown, s save matching entries as HAR, e open body in $EDITOR,
r reload, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			src, err := c.openSource(ctx)
			if err != nil {
				return err
			}
			opts := ui.Options{
				Title:   sourceTitle(c, src),
				Logger:  c.log,
				Version: Version,
			}

			if files, ok := src.(*source.FileSource); ok {
				events, err := watchFiles(ctx, c, files)
				if err != nil {
					c.log.Warn("file watching disabled: %v", err)
				} else {
					opts.Events = events
				}
			} else {
				opts.PollInterval = poll
			}

			app := ui.NewApplication(query.NewEngine(src, query.WithLogger(c.log)), opts)
			return app.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&poll, "poll", 2*time.Second, "reload interval for a live proxy, 0 disables")
	return cmd
}

func sourceTitle(c *cli, src source.Source) string {
	switch s := src.(type) {
	case *source.BrowserMob:
		return s.BaseURL()
	case *source.FileSource:
		return strings.Join(c.cfg.HAR.Files, ", ")
	default:
		return ""
	}
}
