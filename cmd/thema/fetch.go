package main

import (
	"fmt"
	"os"

	"github.com/Sternrassler/thema-client/pkg/dataset"
	"github.com/Sternrassler/thema-client/pkg/export"
	"github.com/Sternrassler/thema-client/pkg/query"
	"github.com/spf13/cobra"
)

func newFetchCmd(opts *options) *cobra.Command {
	var family, queryPath string
	var allEditions, dryRun bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch data for a query file into <Family>_data.xlsx",
		Long: "Fetch data for every combination described by a YAML query file. A\n" +
			"scalar is a single value, a list is a set of candidates and a missing\n" +
			"or null field takes the master data default. Combinations without data\n" +
			"are written to Rejected_combinations.xlsx.",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := dataset.ParseKind(family)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(queryPath)
			if err != nil {
				return fmt.Errorf("read query: %w", err)
			}
			tmpl, err := query.ParseTemplate(data)
			if err != nil {
				return err
			}

			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("all-editions") {
				cfg.API.AllEditions = allEditions
			}
			c, release, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer release()

			out := cmd.OutOrStdout()
			if dryRun {
				exp, err := c.Expand(cmd.Context(), kind, tmpl)
				if err != nil {
					return err
				}
				for _, inst := range exp.Instances {
					fmt.Fprintln(out, inst.String())
				}
				fmt.Fprintf(out, "%d requests (%d combinations, %d pruned)\n",
					len(exp.Instances), exp.Unpruned, exp.Pruned)
				return nil
			}

			res, err := c.Fetch(cmd.Context(), kind, tmpl)
			if err != nil {
				return err
			}

			w := export.NewWriter(cfg.Output.Dir, logger)
			path, err := w.WriteResult(res)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d rows from %d requests (%d pruned), wrote %s\n",
				res.Table.Len(), res.Instances, res.Pruned, path)

			rejectedPath, err := w.WriteRejected(c.Rejected())
			if err != nil {
				return err
			}
			if rejectedPath != "" {
				fmt.Fprintf(out, "%d combinations without data, wrote %s\n", res.Rejected.Len(), rejectedPath)
			}

			logMetrics(logger)
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "dataset family: hourly, monthly, annual, go, ppa, technology")
	cmd.Flags().StringVar(&queryPath, "query", "", "YAML query file")
	cmd.Flags().BoolVar(&allEditions, "all-editions", false, "expand a missing edition to every edition")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the expanded requests without fetching")
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
