package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/tilegen-backend/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Connects to Postgres, Redis (when REDIS_ADDR is set), object storage and the
image API, then serves until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		a.Start(ctx)
		if err := a.Run(ctx); err != nil {
			a.Log.Error("server stopped", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
