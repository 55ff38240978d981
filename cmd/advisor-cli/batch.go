package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/deliveryadvisor/advisor"
)

var (
	batchInput   string
	batchOutput  string
	batchOutDir  string
	batchColumn  string
	batchPreview int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Recommend payment modes for every city in a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, err := advisor.ParseQueryFile(batchInput, advisor.QueryParseOptions{Column: batchColumn})
		if err != nil {
			return err
		}
		if len(queries) == 0 {
			return eris.Errorf("no queries in %s", batchInput)
		}
		outPath, err := resolveOutputPath(batchOutput, batchOutDir, time.Now())
		if err != nil {
			return err
		}

		engine, closeEngine, err := advisor.Open(cfg, zap.L())
		if err != nil {
			return err
		}
		defer closeEngine()

		outcomes, err := engine.RecommendAll(cmd.Context(), queries, func(done, total int) {
			if done%100 == 0 || done == total {
				zap.L().Info("batch progress", zap.Int("done", done), zap.Int("total", total))
			}
		})
		if err != nil {
			return eris.Wrap(err, "batch interrupted")
		}
		if err := writeResultFile(outPath, outcomes); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printSummary(out, outcomes, batchPreview)
		fmt.Fprintf(out, "\nResultados guardados en %s\n", outPath)
		return nil
	},
}

func resolveOutputPath(path, dir string, now time.Time) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", eris.Wrap(err, "resolve output path")
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", eris.Wrap(err, "create output directory")
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", eris.Wrap(err, "resolve output dir")
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", eris.Wrap(err, "create output dir")
	}
	filename := fmt.Sprintf("recomendaciones_%s.csv", now.Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeResultFile(path string, outcomes []advisor.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create result file")
	}
	if err := advisor.WriteResultsCSV(f, outcomes); err != nil {
		f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "close result file")
}

// printSummary prints totals per label and the first limit outcomes.
func printSummary(w io.Writer, outcomes []advisor.Outcome, limit int) {
	counts := map[string]int{}
	for _, o := range outcomes {
		counts[outcomeKey(o)]++
	}
	fmt.Fprintln(w, "==== Resumen ====")
	fmt.Fprintf(w, "Consultas: %d\n", len(outcomes))
	for _, key := range []string{string(advisor.LabelCOD), string(advisor.LabelPrepaid), "NOT_FOUND", "ERROR"} {
		fmt.Fprintf(w, "  %-20s %d\n", key, counts[key])
	}
	if limit <= 0 {
		return
	}
	fmt.Fprintln(w)
	for i, o := range outcomes[:min(limit, len(outcomes))] {
		fmt.Fprintf(w, "%d. %s\n", i+1, summarizeOutcome(o))
	}
}

func outcomeKey(o advisor.Outcome) string {
	switch {
	case o.Recommendation != nil:
		return string(o.Recommendation.Label)
	case errors.Is(o.Err, advisor.ErrNotFound):
		return "NOT_FOUND"
	default:
		return "ERROR"
	}
}

func summarizeOutcome(o advisor.Outcome) string {
	query := o.Query
	if query == "" {
		query = "(consulta vacía)"
	}
	if o.Recommendation != nil {
		return fmt.Sprintf("%s -> %s (%d%%) %.4f %s", query, o.Recommendation.MatchedCity,
			o.Recommendation.Similarity, o.Recommendation.PredictedScore, o.Recommendation.Label)
	}
	return fmt.Sprintf("%s: %s", query, o.PublicError())
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "query file (.txt one per line, or .csv/.tsv)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "result CSV path")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "csv", "directory for a timestamped result file when --output is empty")
	batchCmd.Flags().StringVar(&batchColumn, "column", "", "query column name or #N index for CSV/TSV input")
	batchCmd.Flags().IntVar(&batchPreview, "preview", 10, "number of results to print")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
