package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"tempo/internal/catalog"
)

func newCatalogCommand(cmdCtx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Target catalog utilities",
	}

	catalogCmd.AddCommand(newCatalogShowCommand(cmdCtx))
	catalogCmd.AddCommand(newCatalogValidateCommand(cmdCtx))

	return catalogCmd
}

func newCatalogShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the catalog sources and their items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.configValue()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.Paths.Catalog)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			names := sourceNames(cat)

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				source := cat.Sources[name]
				rows = append(rows, []string{
					name,
					yesNo(source.IsEnabled()),
					source.ScraperType(),
					strconv.Itoa(len(source.Items)),
					source.URL,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"SOURCE", "ENABLED", "SCRAPER", "ITEMS", "URL"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))

			for _, name := range names {
				source := cat.Sources[name]
				if len(source.Items) == 0 {
					continue
				}
				fmt.Fprintf(out, "\n%s items:\n", name)
				for _, item := range source.Items {
					if item.Name != "" {
						fmt.Fprintf(out, "  %s  %s\n", item.ID, item.Name)
					} else {
						fmt.Fprintf(out, "  %s\n", item.ID)
					}
				}
			}
			return nil
		},
	}
}

func newCatalogValidateCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the target catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.configValue()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.Paths.Catalog)
			if err != nil {
				return err
			}

			items := 0
			for _, source := range cat.Sources {
				items += len(source.Items)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog valid: %d sources, %d items (%s)\n",
				len(cat.Sources), items, cfg.Paths.Catalog)
			return nil
		},
	}
}

func sourceNames(cat *catalog.Catalog) []string {
	names := make([]string, 0, len(cat.Sources))
	for name := range cat.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
