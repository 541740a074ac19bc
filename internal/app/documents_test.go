package app

import (
	"context"
	"testing"

	"github.com/yungbote/tilegen-backend/internal/platform/configsource"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/promptsources"
	"github.com/yungbote/tilegen-backend/internal/templates"
)

func TestSampleDocumentsLoad(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	tpls, err := templates.NewStore(log, configsource.NewFile("../../data/prompt-templates.json"), nil).Load(ctx)
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	srcs, err := promptsources.NewStore(log, configsource.NewFile("../../data/prompt-sources.json"), nil).Load(ctx)
	if err != nil {
		t.Fatalf("prompt sources: %v", err)
	}
	ids := map[string]bool{}
	for _, tpl := range tpls {
		ids[tpl.ID] = true
	}
	for _, src := range srcs {
		if !ids[src.ID] {
			t.Fatalf("source %s has no template", src.ID)
		}
	}
	if len(tpls) != 2 || len(srcs) != 2 {
		t.Fatalf("counts: want=2/2 got=%d/%d", len(tpls), len(srcs))
	}
}
