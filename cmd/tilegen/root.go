package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "tilegen",
	Short: "Seamless tile generation backend",
	Long: `tilegen serves the template catalog, option and palette lookups and
AI generation of seamless tiles.

Settings come from the environment (optionally a .env file) and an
optional YAML config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			// a missing default .env is fine
			_ = godotenv.Load()
			return nil
		}
		return godotenv.Load(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default: ./.env when present)")
}
