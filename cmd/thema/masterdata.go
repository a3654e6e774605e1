package main

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/thema-client/pkg/catalog"
	"github.com/Sternrassler/thema-client/pkg/dataset"
	"github.com/Sternrassler/thema-client/pkg/export"
	"github.com/spf13/cobra"
)

func newMasterDataCmd(opts *options) *cobra.Command {
	var family, source, region string

	cmd := &cobra.Command{
		Use:   "masterdata",
		Short: "Download master data into Master_data.xlsx",
		Long: "Download the master data of a dataset family (--family) or of a named\n" +
			"source (--source: Outlook, GO, PPA, Technology, Hydrogen) and write one\n" +
			"sheet per relation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := resolveSource(family, source)
			if err != nil {
				return err
			}

			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			c, release, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer release()

			cat, err := c.MasterDataSource(cmd.Context(), src)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range cat.Names() {
				rel, _ := cat.Relation(name)
				fmt.Fprintf(out, "%-26s %d rows\n", name, rel.Len())
			}

			newest, err := cat.NewestEdition(region)
			switch {
			case err == nil:
				fmt.Fprintln(out, "newest edition:", newest)
			case errors.Is(err, catalog.ErrNoEditions):
			default:
				return err
			}

			path, err := export.NewWriter(cfg.Output.Dir, logger).WriteMasterData(cat, masterDataFile(src))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "wrote", path)
			logMetrics(logger)
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "dataset family: hourly, monthly, annual, go, ppa, technology")
	cmd.Flags().StringVar(&source, "source", "", "master data source: outlook, go, ppa, technology, hydrogen")
	cmd.Flags().StringVar(&region, "region", "", "report the newest edition of this region")
	cmd.MarkFlagsMutuallyExclusive("family", "source")
	cmd.MarkFlagsOneRequired("family", "source")
	return cmd
}

func resolveSource(family, source string) (dataset.Source, error) {
	if family != "" {
		kind, err := dataset.ParseKind(family)
		if err != nil {
			return dataset.Source{}, err
		}
		return dataset.ParseSource(string(kind))
	}
	return dataset.ParseSource(source)
}

// masterDataFile keeps Master_data.xlsx for the outlook source and prefixes
// every other source's name.
func masterDataFile(src dataset.Source) string {
	if src.Path == "/masterdata" {
		return export.MasterDataFile
	}
	return src.Name + "_" + export.MasterDataFile
}
