// Package promptsources loads prompt-source documents and turns template
// parameters into selectable options and sanitized prompt input.
package promptsources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/platform/cache"
	"github.com/yungbote/tilegen-backend/internal/platform/configsource"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

const storeCacheTTL = 600 * time.Second

// Store serves prompt sources from a versioned document. Sources are
// optional, so a document that cannot be read yields an empty list.
type Store struct {
	log   *logger.Logger
	src   configsource.Source
	cache cache.Cache
}

func NewStore(log *logger.Logger, src configsource.Source, c cache.Cache) *Store {
	return &Store{log: log.With("service", "PromptSourceStore"), src: src, cache: c}
}

// Load reads and validates the document, bypassing the cache.
func (s *Store) Load(ctx context.Context) ([]prompt.PromptSource, error) {
	raw, err := s.src.ReadAll(ctx)
	if err != nil {
		s.log.Warn("prompt sources unavailable", "source", s.src.Name(), "error", err)
		return []prompt.PromptSource{}, nil
	}
	var list []prompt.PromptSource
	if err := configsource.Decode(s.src.Name(), raw, &list); err != nil {
		return nil, fmt.Errorf("load prompt sources: %w", err)
	}
	if err := validateSources(list); err != nil {
		return nil, fmt.Errorf("load prompt sources %s: %w", s.src.Name(), err)
	}
	if list == nil {
		list = []prompt.PromptSource{}
	}
	return list, nil
}

func (s *Store) List(ctx context.Context) ([]prompt.PromptSource, error) {
	key := "prompt-sources:list:" + s.src.Version(ctx)

	var cached []prompt.PromptSource
	if hit, err := cache.GetJSON(ctx, s.cache, key, &cached); err != nil {
		s.log.Warn("prompt source cache read failed", "key", key, "error", err)
	} else if hit {
		return cached, nil
	}

	list, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, list, storeCacheTTL); err != nil {
		s.log.Warn("prompt source cache write failed", "key", key, "error", err)
	}
	return list, nil
}

// Get returns nil without error when no source matches id.
func (s *Store) Get(ctx context.Context, id string) (*prompt.PromptSource, error) {
	key := "prompt-sources:item:" + id + ":" + s.src.Version(ctx)

	var cached prompt.PromptSource
	if hit, err := cache.GetJSON(ctx, s.cache, key, &cached); err != nil {
		s.log.Warn("prompt source cache read failed", "key", key, "error", err)
	} else if hit {
		return &cached, nil
	}

	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		src := list[i]
		if err := cache.SetJSON(ctx, s.cache, key, src, storeCacheTTL); err != nil {
			s.log.Warn("prompt source cache write failed", "key", key, "error", err)
		}
		return &src, nil
	}
	return nil, nil
}

func validateSources(list []prompt.PromptSource) error {
	for i, src := range list {
		if strings.TrimSpace(src.ID) == "" {
			return fmt.Errorf("sources[%d]: id required", i)
		}
		if strings.TrimSpace(src.Provider) == "" {
			return fmt.Errorf("source %s: provider required", src.ID)
		}
		if src.EntityResolver != nil && strings.TrimSpace(src.EntityResolver.Provider) == "" {
			return fmt.Errorf("source %s: entityResolver.provider required", src.ID)
		}
		if san := src.Sanitization; san != nil && san.MaxLength < 0 {
			return fmt.Errorf("source %s: sanitization.maxLength must be positive", src.ID)
		}
		if c := src.Color; c != nil {
			for j, st := range c.Strategies {
				if strings.TrimSpace(st.ID) == "" {
					return fmt.Errorf("source %s: color.strategies[%d]: id required", src.ID, j)
				}
				switch st.BackgroundPolicy {
				case "", prompt.BackgroundPastel, prompt.BackgroundLight, prompt.BackgroundNeutral:
				default:
					return fmt.Errorf("source %s: color.strategies[%d]: unknown backgroundPolicy %q", src.ID, j, st.BackgroundPolicy)
				}
			}
		}
	}
	return nil
}
