package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cnharrison/harq/internal/source"
)

// CaptureStatus is printed by the capture subcommands
type CaptureStatus struct {
	Service string `json:"service"`
	Port    int    `json:"port,omitempty"`
	Proxy   string `json:"proxy,omitempty"`
	Label   string `json:"label,omitempty"`
	Ports   []int  `json:"ports,omitempty"`
	Closed  bool   `json:"closed,omitempty"`
}

func newCaptureCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Control HAR recording on a running BrowserMob Proxy",
		Long: `Control HAR recording on a running BrowserMob Proxy service.
harq never launches the service or a browser; point your browser at the
proxy address printed by "capture start".`,
	}
	cmd.AddCommand(newCaptureStartCmd(c), newCaptureStopCmd(c), newCaptureStatusCmd(c))
	return cmd
}

func newCaptureStartCmd(c *cli) *cobra.Command {
	opts := source.DefaultCaptureOptions()
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Attach to a proxy port and begin a new HAR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			bmp := c.browserMob()
			if bmp.Port() == 0 {
				if _, err := bmp.Connect(ctx); err != nil {
					return source.Unavailable("BrowserMob Proxy", err)
				}
			}
			label, err := bmp.StartCapture(ctx, opts)
			if err != nil {
				return err
			}
			proxy, err := bmp.ChromeProxyURL()
			if err != nil {
				return err
			}
			c.log.Info("recording on port %d, configure your browser with --proxy-server=%s", bmp.Port(), proxy)
			return c.renderer(cmd.OutOrStdout()).Value(CaptureStatus{
				Service: bmp.BaseURL(), Port: bmp.Port(), Proxy: proxy, Label: label,
			})
		},
	}
	cmd.Flags().StringVar(&opts.Label, "label", "", "initial page reference (default: random)")
	cmd.Flags().BoolVar(&opts.CaptureContent, "content", opts.CaptureContent, "record request and response bodies")
	cmd.Flags().BoolVar(&opts.CaptureHeaders, "headers", opts.CaptureHeaders, "record headers")
	cmd.Flags().BoolVar(&opts.CaptureBinary, "binary", opts.CaptureBinary, "record binary bodies")
	return cmd
}

func newCaptureStopCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Close the proxy port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			bmp := c.browserMob()
			if bmp.Port() == 0 {
				ports, err := bmp.ProxyPorts(ctx)
				if err != nil {
					return source.Unavailable("BrowserMob Proxy", err)
				}
				if len(ports) == 0 {
					return errors.New("no proxy port is running")
				}
				c.cfg.BrowserMob.Port = ports[0]
				bmp = c.browserMob()
			}
			port := bmp.Port()
			if err := bmp.Close(ctx); err != nil {
				return err
			}
			c.log.Info("closed proxy port %d", port)
			return c.renderer(cmd.OutOrStdout()).Value(CaptureStatus{Service: bmp.BaseURL(), Port: port, Closed: true})
		},
	}
}

func newCaptureStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List the proxy ports the service runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bmp := c.browserMob()
			ports, err := bmp.ProxyPorts(cmd.Context())
			if err != nil {
				return source.Unavailable(fmt.Sprintf("BrowserMob Proxy at %s", bmp.BaseURL()), err)
			}
			return c.renderer(cmd.OutOrStdout()).Value(CaptureStatus{Service: bmp.BaseURL(), Ports: ports})
		},
	}
}
