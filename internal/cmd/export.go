package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cnharrison/harq/internal/export"
)

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching traffic as curl commands, markdown or HAR",
	}
	cmd.AddCommand(newExportCurlCmd(c), newExportMarkdownCmd(c), newExportHARCmd(c))
	return cmd
}

func newExportCurlCmd(c *cli) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "curl",
		Short: "Print a curl command for each matching request",
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
			for _, rec := range records {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), export.GenerateCurlCommand(rec)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	ff.register(cmd.Flags(), true)
	return cmd
}

func newExportMarkdownCmd(c *cli) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "markdown",
		Short: "Print a markdown report for each matching exchange",
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
			reports := make([]string, 0, len(records))
			for _, rec := range records {
				reports = append(reports, export.GenerateMarkdownSummary(rec))
			}
			if len(reports) == 0 {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(reports, "\n\n---\n\n"))
			return err
		},
	}
	ff.register(cmd.Flags(), true)
	return cmd
}

func newExportHARCmd(c *cli) *cobra.Command {
	var (
		ff   filterFlags
		file string
	)
	cmd := &cobra.Command{
		Use:   "har",
		Short: "Save matching entries as a new HAR file",
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
			entries, err := queries.Entries(cmd.Context(), f)
			if err != nil {
				return err
			}
			if err := export.WriteHAR(file, entries, Version); err != nil {
				return err
			}
			c.log.Info("wrote %d entries to %s", len(entries), file)
			return nil
		},
	}
	ff.register(cmd.Flags(), true)
	cmd.Flags().StringVarP(&file, "file", "f", "harq-export.har", "destination file")
	return cmd
}
