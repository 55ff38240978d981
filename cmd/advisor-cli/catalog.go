package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/deliveryadvisor/advisor"
)

var catalogJSON bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Load the reference catalog and print load statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := advisor.LoadCatalog(cfg.Catalog, zap.L())
		if err != nil {
			return err
		}
		return printStats(cmd.OutOrStdout(), catalog.Stats(), catalogJSON)
	},
}

func printStats(w io.Writer, stats advisor.CatalogStats, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(w, "Filas leídas:      %d\n", stats.Rows)
	fmt.Fprintf(w, "Ciudades indexadas: %d\n", stats.Indexed)
	fmt.Fprintf(w, "Sin nombre:        %d\n", stats.Unnamed)
	fmt.Fprintf(w, "Duplicadas:        %d\n", stats.Duplicates)
	fmt.Fprintf(w, "Omitidas:          %d\n", stats.Skipped)
	for _, row := range stats.SkippedRows {
		fmt.Fprintf(w, "  línea %d: %s\n", row.Line, row.Reason)
	}
	if len(stats.MissingColumns) > 0 {
		fmt.Fprintf(w, "Columnas ausentes: %v\n", stats.MissingColumns)
	}
	return nil
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print statistics as JSON")
	rootCmd.AddCommand(catalogCmd)
}
