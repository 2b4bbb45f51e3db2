package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cnharrison/harq/internal/filter"
)

// filterFlags maps the command line onto a QueryFilter
type filterFlags struct {
	pattern   string
	exact     bool
	contains  string
	endpoint  string
	pathExact string
}

func (f *filterFlags) register(fs *pflag.FlagSet, withPathExact bool) {
	fs.StringVar(&f.pattern, "url-pattern", "", "regular expression searched anywhere in the URL")
	fs.BoolVar(&f.exact, "exact", false, "compare --url-pattern literally against the whole URL")
	fs.StringVar(&f.contains, "url-contains", "", "substring the URL must contain (wins over --url-pattern)")
	fs.StringVar(&f.endpoint, "endpoint", "", "literal path the URL must end with")
	if withPathExact {
		fs.StringVar(&f.pathExact, "path-exact", "", "literal path the URL must end with, query string allowed")
	}
}

func (f *filterFlags) build() (filter.QueryFilter, error) {
	set := 0
	for _, v := range []string{f.pattern, f.endpoint, f.pathExact} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return filter.QueryFilter{}, errors.New("--url-pattern, --endpoint and --path-exact are mutually exclusive")
	}
	if f.contains != "" && (f.endpoint != "" || f.pathExact != "") {
		return filter.QueryFilter{}, errors.New("--url-contains cannot be combined with --endpoint or --path-exact")
	}
	if f.exact && f.pattern == "" {
		return filter.QueryFilter{}, errors.New("--exact requires --url-pattern")
	}

	qf := filter.QueryFilter{URLPattern: f.pattern, ExactMatch: f.exact, URLContains: f.contains}
	switch {
	case f.endpoint != "":
		qf.URLPattern = filter.EndpointPattern(f.endpoint)
	case f.pathExact != "":
		qf.URLPattern = filter.PathExactPattern(f.pathExact)
	}
	return qf, nil
}

func newRequestsCmd(c *cli) *cobra.Command {
	var ff filterFlags
	var raw bool
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"entries"},
		Short:   "List captured HAR entries",
		Long: `List the captured entries matching the filter flags.
With --raw the whole HAR document is printed as captured, log metadata
and pages included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.build()
			if err != nil {
				return err
			}
			if raw && !f.IsZero() {
				return errors.New("--raw prints the whole capture and takes no filter flags")
			}
			queries, err := c.engine(cmd.Context())
			if err != nil {
				return err
			}
			if raw {
				doc, err := queries.Requests(cmd.Context())
				if err != nil {
					return err
				}
				return c.renderer(cmd.OutOrStdout()).Value(doc)
			}
			entries, err := queries.Entries(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.renderer(cmd.OutOrStdout()).Entries(entries)
		},
	}
	ff.register(cmd.Flags(), false)
	cmd.Flags().BoolVar(&raw, "raw", false, "print the whole HAR document")
	return cmd
}

func newResponsesCmd(c *cli) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "responses",
		Short: "Show decoded response bodies",
		Long: `Show the response body of every matching entry. Base64 bodies are
decoded and JSON bodies are parsed into the "json" field.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.build()
			if err != nil {
				return err
			}
			queries, err := c.engine(cmd.Context())
			if err != nil {
				return err
			}
			records, err := queries.ResponseBodies(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.renderer(cmd.OutOrStdout()).Responses(records)
		},
	}
	ff.register(cmd.Flags(), false)
	return cmd
}

func newPayloadsCmd(c *cli) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "payloads",
		Short: "Show request headers, query parameters and bodies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.build()
			if err != nil {
				return err
			}
			queries, err := c.engine(cmd.Context())
			if err != nil {
				return err
			}
			records, err := queries.RequestPayloads(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.renderer(cmd.OutOrStdout()).Payloads(records)
		},
	}
	ff.register(cmd.Flags(), false)
	return cmd
}

func newCombinedCmd(c *cli) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "combined",
		Short: "Pair each matching request with its response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.build()
			if err != nil {
				return err
			}
			queries, err := c.engine(cmd.Context())
			if err != nil {
				return err
			}
			records, err := queries.RequestAndResponseData(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.renderer(cmd.OutOrStdout()).Combined(records)
		},
	}
	ff.register(cmd.Flags(), true)
	return cmd
}
