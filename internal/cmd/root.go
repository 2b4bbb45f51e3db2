// Package cmd wires the harq command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cnharrison/harq/internal/config"
	"github.com/cnharrison/harq/internal/logger"
	"github.com/cnharrison/harq/internal/output"
	"github.com/cnharrison/harq/internal/query"
	"github.com/cnharrison/harq/internal/source"
)

// Version is stamped into exported HAR files and --version
var Version = "0.1.0"

// cli carries the state shared by every subcommand of one invocation
type cli struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	log     logger.Logger
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, query.ErrSourceUnavailable) {
			fmt.Fprintln(os.Stderr, "Hint: start a capture with `harq capture start` or query files with --har")
		}
		os.Exit(1)
	}
}

// NewRootCmd builds a fresh command tree
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New(), log: logger.Nop()}

	rootCmd := &cobra.Command{
		Use:   "harq",
		Short: "Query captured HTTP traffic",
		Long: `harq answers questions about captured HTTP traffic: which requests were
sent, what they carried and what came back. Traffic comes from HAR files on
disk or from a running BrowserMob Proxy service.

Examples:
  # Login requests with their responses, from a saved capture
  harq combined --har capture.har --url-contains /api/login

  # Response bodies for one endpoint from a live BrowserMob Proxy
  harq capture start
  harq responses --endpoint /api/profile -o text

  # Pull one field out of every parsed request body
  harq payloads --har "captures/**/*.har" --select "#.json.username"

  # Serve the queries over HTTP
  harq serve --har capture.har`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.cfgFile, "config", "c", "", "config file (default: $HOME/.harq.yaml)")
	flags.StringP("output", "o", "json", "output format: json, text, msgpack")
	flags.String("select", "", "gjson path applied to the JSON result, e.g. \"#.url\"")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "suppress informational logging")
	flags.StringSlice("har", nil, "HAR files or globs to query instead of BrowserMob Proxy (repeatable)")
	flags.String("browsermob", source.DefaultBrowserMobURL, "BrowserMob Proxy REST address")
	flags.Int("port", 0, "existing BrowserMob proxy port (default: first running port)")

	for key, name := range map[string]string{
		"output.format":   "output",
		"output.select":   "select",
		"verbose":         "verbose",
		"quiet":           "quiet",
		"har.files":       "har",
		"browsermob.url":  "browsermob",
		"browsermob.port": "port",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newRequestsCmd(c),
		newResponsesCmd(c),
		newPayloadsCmd(c),
		newCombinedCmd(c),
		newCaptureCmd(c),
		newFetchCmd(c),
		newExportCmd(c),
		newServeCmd(c),
		newTUICmd(c),
	)
	return rootCmd
}

func (c *cli) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	if _, err := output.ParseFormat(cfg.Output.Format); err != nil {
		return err
	}
	c.cfg = cfg
	c.log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Verbose, cfg.Quiet)
	return nil
}

func (c *cli) renderer(w io.Writer) *output.Renderer {
	format, _ := output.ParseFormat(c.cfg.Output.Format)
	return output.New(w, format, c.cfg.Output.Select)
}

func (c *cli) browserMob() *source.BrowserMob {
	return source.NewBrowserMob(c.cfg.BrowserMob.URL,
		source.WithHTTPClient(&http.Client{Timeout: c.cfg.BrowserMob.Timeout}),
		source.WithLogger(c.log),
		source.WithPort(c.cfg.BrowserMob.Port),
	)
}

// openSource returns the configured HAR files, or the BrowserMob service
// attached to its first running proxy port.
func (c *cli) openSource(ctx context.Context) (source.Source, error) {
	if c.cfg.UsesFiles() {
		return source.NewFileSource(c.log, c.cfg.HAR.Files...), nil
	}

	bmp := c.browserMob()
	if bmp.Port() == 0 {
		if _, err := bmp.Connect(ctx); err != nil {
			return nil, source.Unavailable("BrowserMob Proxy", err)
		}
	}
	c.log.Debug("querying BrowserMob Proxy %s port %d", bmp.BaseURL(), bmp.Port())
	return bmp, nil
}

func (c *cli) engine(ctx context.Context) (*query.Engine, error) {
	src, err := c.openSource(ctx)
	if err != nil {
		return nil, err
	}
	return query.NewEngine(src, query.WithLogger(c.log)), nil
}

// signalContext is canceled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
