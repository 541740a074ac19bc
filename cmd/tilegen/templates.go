package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/tilegen-backend/internal/app"
	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/platform/configsource"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/promptsources"
	"github.com/yungbote/tilegen-backend/internal/templates"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect the template and prompt source documents",
}

var templatesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the template and prompt source files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		tpls, srcs, err := loadDocuments(cmd, cfg)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(tpls))
		for _, t := range tpls {
			known[t.ID] = true
		}
		for _, s := range srcs {
			if !known[s.ID] {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: prompt source %q has no matching template\n", s.ID)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d templates, %d prompt sources\n", len(tpls), len(srcs))
		return nil
	},
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates with their parameters and source provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		tpls, srcs, err := loadDocuments(cmd, cfg)
		if err != nil {
			return err
		}
		providerByID := make(map[string]string, len(srcs))
		for _, s := range srcs {
			providerByID[s.ID] = s.Provider
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPARAMS\tPROVIDER")
		for _, t := range tpls {
			provider := providerByID[t.ID]
			if provider == "" {
				provider = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.ID, t.Name, len(t.ParamsSchema), provider)
		}
		return w.Flush()
	},
}

func loadDocuments(cmd *cobra.Command, cfg app.Config) ([]prompt.Template, []prompt.PromptSource, error) {
	log := logger.NewNop()
	ctx := cmd.Context()
	tpls, err := templates.NewStore(log, configsource.NewFile(cfg.TemplatesPath), nil).Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("templates: %w", err)
	}
	srcs, err := promptsources.NewStore(log, configsource.NewFile(cfg.PromptSourcesPath), nil).Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("prompt sources: %w", err)
	}
	return tpls, srcs, nil
}

func init() {
	templatesCmd.AddCommand(templatesValidateCmd, templatesListCmd)
	rootCmd.AddCommand(templatesCmd)
}
