package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cnharrison/harq/internal/direct"
)

func newFetchCmd(c *cli) *cobra.Command {
	var (
		req     direct.Request
		headers []string
		cookies []string
		timeout = direct.DefaultTimeout
	)
	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Send one HTTP request directly, bypassing the proxy",
		Long: `Send one HTTP request directly and print the response in the same shape
as captured responses. Transport failures are reported in the "error" field.

Examples:
  harq fetch https://api.example.com/v1/me -H "Authorization: Bearer TOKEN"
  harq fetch https://api.example.com/v1/login -X POST -d '{"username":"u"}' -H "Content-Type: application/json"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.URL = args[0]
			var err error
			if req.Headers, err = parsePairs(headers, ":"); err != nil {
				return fmt.Errorf("invalid --header: %w", err)
			}
			if req.Cookies, err = parsePairs(cookies, "="); err != nil {
				return fmt.Errorf("invalid --cookie: %w", err)
			}

			client := direct.NewClient(&http.Client{Timeout: timeout}, c.log)
			resp := client.Fetch(cmd.Context(), req)
			return c.renderer(cmd.OutOrStdout()).Value(resp)
		},
	}
	cmd.Flags().StringVarP(&req.Method, "request", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, `request header "Name: value" (repeatable)`)
	cmd.Flags().StringArrayVarP(&cookies, "cookie", "b", nil, `cookie "name=value" (repeatable)`)
	cmd.Flags().StringVarP(&req.Body, "data", "d", "", "request body")
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "request timeout")
	return cmd
}

// parsePairs splits each "name<sep>value" item; later names win
func parsePairs(items []string, sep string) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		name, value, ok := strings.Cut(item, sep)
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%q is not name%svalue", item, sep)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}
