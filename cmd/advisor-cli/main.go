package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/deliveryadvisor/advisor"
)

var (
	cfg        advisor.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "advisor-cli",
	Short: "Recommend cash-on-delivery or prepaid shipping per destination city",
	Long: "Resolves free-text destination cities against the reference catalog, " +
		"scores them with the trained classifier and recommends COD or prepaid shipping.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := advisor.LoadConfig(configPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		logger, err := advisor.NewLogger(cfg.Log)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
