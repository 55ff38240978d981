package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/deliveryadvisor/advisor"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend CITY...",
	Short: "Recommend a payment mode for one destination city",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeEngine, err := advisor.Open(cfg, zap.L())
		if err != nil {
			return err
		}
		defer closeEngine()

		query := strings.Join(args, " ")
		rec, err := engine.Recommend(cmd.Context(), query)
		return printRecommendation(cmd.OutOrStdout(), rec, err)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve CITY...",
	Short: "Show the closest catalog city without scoring it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := advisor.LoadCatalog(cfg.Catalog, zap.L())
		if err != nil {
			return err
		}
		scorer, err := advisor.ScorerByName(cfg.Resolver.Scorer)
		if err != nil {
			return err
		}
		match, err := advisor.NewResolver(scorer).Resolve(strings.Join(args, " "), catalog)
		return printResolution(cmd.OutOrStdout(), match, err)
	},
}

const emptyQueryHint = "Escribe el nombre de una ciudad."

// printRecommendation renders the three-part result. Not-found and a blank
// query are printed as feedback and are not command failures.
func printRecommendation(w io.Writer, rec advisor.Recommendation, err error) error {
	var notFound *advisor.NotFoundError
	switch {
	case err == nil:
		fmt.Fprint(w, rec.Narrative())
		fmt.Fprintln(w, rec.Label)
		return nil
	case errors.Is(err, advisor.ErrEmptyQuery):
		fmt.Fprintln(w, emptyQueryHint)
		return nil
	case errors.As(err, &notFound):
		fmt.Fprintf(w, "Ciudad no encontrada. ¿Quisiste decir %s? (similitud: %d%%)\n",
			notFound.Match.CandidateDisplay, notFound.Match.Similarity)
		return nil
	case errors.Is(err, advisor.ErrPredictionFailed):
		return eris.New("prediction failed, see log for details")
	default:
		return err
	}
}

func printResolution(w io.Writer, m advisor.ResolvedMatch, err error) error {
	switch {
	case err == nil:
		printMatch(w, m)
		return nil
	case errors.Is(err, advisor.ErrEmptyQuery):
		fmt.Fprintln(w, emptyQueryHint)
		return nil
	default:
		return err
	}
}

func printMatch(w io.Writer, m advisor.ResolvedMatch) {
	status := "no encontrada"
	if m.Found {
		status = "encontrada"
	}
	fmt.Fprintf(w, "%s -> %s (similitud: %d%%, %s)\n", m.Query, m.CandidateDisplay, m.Similarity, status)
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(resolveCmd)
}
