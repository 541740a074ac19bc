package main

import (
	"context"
	"fmt"

	"github.com/yungbote/tilegen-backend/internal/app"
	"github.com/yungbote/tilegen-backend/internal/data/db"
	"github.com/yungbote/tilegen-backend/internal/data/repos"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

// openRepos connects to Postgres, migrates, and returns the repos plus a
// closer the caller must defer.
func openRepos(ctx context.Context, cfg app.Config, log *logger.Logger) (repos.Repos, func(), error) {
	pg, err := db.NewPostgresService(ctx, log, db.PostgresConfig{
		DSN:      cfg.PostgresDSN,
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		Name:     cfg.PostgresName,
	})
	if err != nil {
		return repos.Repos{}, nil, err
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		pg.Close()
		return repos.Repos{}, nil, fmt.Errorf("automigrate: %w", err)
	}
	return repos.New(pg.DB(), log), func() { pg.Close() }, nil
}
