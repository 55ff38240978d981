package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"yashubustudio/deliveryadvisor/advisor"
)

var (
	configOut   string
	configForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !configForce {
			if _, err := os.Stat(configOut); err == nil {
				return eris.Errorf("%s already exists (use --force to overwrite)", configOut)
			}
		}
		if err := advisor.SaveConfig(configOut, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuración guardada en %s\n", configOut)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configOut, "out", "config.yaml", "destination file")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
