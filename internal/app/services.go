package app

import (
	"fmt"
	"path"

	"github.com/yungbote/tilegen-backend/internal/data/repos"
	"github.com/yungbote/tilegen-backend/internal/generation"
	"github.com/yungbote/tilegen-backend/internal/observability"
	"github.com/yungbote/tilegen-backend/internal/palettes"
	"github.com/yungbote/tilegen-backend/internal/platform/configsource"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
	"github.com/yungbote/tilegen-backend/internal/promptsources"
	"github.com/yungbote/tilegen-backend/internal/providers"
	"github.com/yungbote/tilegen-backend/internal/services"
	"github.com/yungbote/tilegen-backend/internal/templates"
)

type Services struct {
	Templates  *templates.Store
	Sources    *promptsources.Store
	Options    *promptsources.OptionResolver
	Inputs     *promptsources.InputResolver
	Palettes   *palettes.Service
	Generation *generation.Service
	Auth       services.AuthService

	// templatesFile is set when templates come from the local filesystem.
	templatesFile *configsource.File
}

// configSources picks the backing store for the template and source
// documents. With CONFIG_SOURCE=gcs the object keys are the base names of
// the configured paths.
func configSources(cfg Config, clients Clients) (configsource.Source, configsource.Source, *configsource.File, error) {
	switch cfg.ConfigSource {
	case "", "file":
		tf := configsource.NewFile(cfg.TemplatesPath)
		return tf, configsource.NewFile(cfg.PromptSourcesPath), tf, nil
	case "gcs":
		if cfg.ConfigBucket == "" {
			return nil, nil, nil, fmt.Errorf("CONFIG_SOURCE=gcs requires CONFIG_GCS_BUCKET_NAME")
		}
		return configsource.NewBucket(clients.Bucket, path.Base(cfg.TemplatesPath)),
			configsource.NewBucket(clients.Bucket, path.Base(cfg.PromptSourcesPath)),
			nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("invalid CONFIG_SOURCE=%q (allowed: file, gcs)", cfg.ConfigSource)
	}
}

func wireServices(log *logger.Logger, cfg Config, reposet repos.Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	tplSrc, srcSrc, tplFile, err := configSources(cfg, clients)
	if err != nil {
		return Services{}, err
	}
	tplStore := templates.NewStore(log, tplSrc, clients.Cache)
	srcStore := promptsources.NewStore(log, srcSrc, clients.Cache)

	registry, err := providers.NewRegistry(
		providers.Static{},
		providers.NewWikidata(log, providers.WikidataConfig{
			UserAgent: cfg.ProviderUserAgent,
			Timeout:   cfg.ProviderTimeout,
		}),
	)
	if err != nil {
		return Services{}, fmt.Errorf("init provider registry: %w", err)
	}
	options := promptsources.NewOptionResolver(log, registry, clients.Cache).WithMetrics(metrics)
	inputs := promptsources.NewInputResolver(log, registry)

	paletteSvc := palettes.NewService(log, clients.Cache,
		palettes.NewTheColorAPI(palettes.EngineConfig{BaseURL: cfg.ColorAPIURL, Timeout: cfg.ProviderTimeout}),
		palettes.NewColormind(palettes.EngineConfig{BaseURL: cfg.ColormindURL, Timeout: cfg.ProviderTimeout}),
	)

	gen := generation.NewService(log, generation.Deps{
		Templates: tplStore,
		Sources:   srcStore,
		Inputs:    inputs,
		Images:    clients.OpenAI,
		Store:     clients.Bucket,
		Tiles:     reposet.Tile,
		Events:    reposet.Event,
		Metrics:   metrics,
	}, generation.Defaults{
		Model:        cfg.ImageModel,
		Size:         cfg.ImageSize,
		OutputFormat: cfg.ImageFormat,
		Background:   cfg.ImageBackground,
	})

	auth, err := services.NewAuthService(log, reposet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	return Services{
		Templates:     tplStore,
		Sources:       srcStore,
		Options:       options,
		Inputs:        inputs,
		Palettes:      paletteSvc,
		Generation:    gen,
		Auth:          auth,
		templatesFile: tplFile,
	}, nil
}
