package templates

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
	"github.com/yungbote/tilegen-backend/internal/platform/cache"
	"github.com/yungbote/tilegen-backend/internal/platform/configsource"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

const cacheTTL = 600 * time.Second

// Store serves validated templates from a versioned document. Cached
// entries are keyed by the document version, so an edit is picked up on
// the next call without explicit invalidation.
type Store struct {
	log   *logger.Logger
	src   configsource.Source
	cache cache.Cache
}

func NewStore(log *logger.Logger, src configsource.Source, c cache.Cache) *Store {
	return &Store{log: log.With("service", "TemplateStore"), src: src, cache: c}
}

// Load reads and validates the whole document, bypassing the cache.
func (s *Store) Load(ctx context.Context) ([]prompt.Template, error) {
	raw, err := s.src.ReadAll(ctx)
	if err != nil {
		return nil, &LoadError{Source: s.src.Name(), Reason: "read failed", Err: err}
	}
	var list []prompt.Template
	if err := configsource.Decode(s.src.Name(), raw, &list); err != nil {
		return nil, &LoadError{Source: s.src.Name(), Reason: "parse failed", Err: err}
	}
	if err := validateAll(list); err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = s.src.Name()
		}
		return nil, err
	}
	return list, nil
}

func (s *Store) List(ctx context.Context) ([]prompt.Template, error) {
	key := "templates:list:" + s.src.Version(ctx)

	var cached []prompt.Template
	if hit, err := cache.GetJSON(ctx, s.cache, key, &cached); err != nil {
		s.log.Warn("template cache read failed", "key", key, "error", err)
	} else if hit {
		return cached, nil
	}

	list, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, list, cacheTTL); err != nil {
		s.log.Warn("template cache write failed", "key", key, "error", err)
	}
	return list, nil
}

// Get returns nil without error for an unknown id.
func (s *Store) Get(ctx context.Context, id string) (*prompt.Template, error) {
	key := "templates:item:" + id + ":" + s.src.Version(ctx)

	var cached prompt.Template
	if hit, err := cache.GetJSON(ctx, s.cache, key, &cached); err != nil {
		s.log.Warn("template cache read failed", "key", key, "error", err)
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
		tpl := list[i]
		if err := cache.SetJSON(ctx, s.cache, key, tpl, cacheTTL); err != nil {
			s.log.Warn("template cache write failed", "key", key, "error", err)
		}
		return &tpl, nil
	}
	return nil, nil
}
