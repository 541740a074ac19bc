package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/tilegen-backend/internal/app"
	types "github.com/yungbote/tilegen-backend/internal/domain"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect recorded tile events",
}

var eventsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of recorded events per type",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := app.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		log, err := app.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		r, closeDB, err := openRepos(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tCOUNT")
		for _, typ := range []types.EventType{types.EventView, types.EventUpload, types.EventAIGenerate, types.EventAICloned} {
			n, err := r.Event.CountByType(ctx, nil, typ)
			if err != nil {
				return fmt.Errorf("count %s: %w", typ, err)
			}
			fmt.Fprintf(w, "%s\t%d\n", typ, n)
		}
		return w.Flush()
	},
}

func init() {
	eventsCmd.AddCommand(eventsCountCmd)
	rootCmd.AddCommand(eventsCmd)
}
