// Package providers holds the named adapters that turn prompt-source
// parameter definitions into option lists and option ids into labels.
package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/tilegen-backend/internal/domain/prompt"
)

// OptionContext is the request-scoped input to an adapter call.
type OptionContext struct {
	Template      prompt.Template
	Source        prompt.PromptSource
	RequestParams map[string]string
}

// Adapter is the minimum every provider implements. The operations it
// supports are discovered through the Searcher, DependentQuerier and
// Resolver interfaces.
type Adapter interface {
	Name() string
}

type Searcher interface {
	Search(ctx context.Context, param prompt.SearchParam, oc OptionContext) ([]prompt.Option, error)
}

type DependentQuerier interface {
	Dependent(ctx context.Context, param prompt.DependentParam, oc OptionContext) ([]prompt.Option, error)
}

type Resolver interface {
	Resolve(ctx context.Context, ids []string, src prompt.PromptSource) (map[string]prompt.ResolvedEntity, error)
}

// Registry is populated once at startup and read-only afterwards.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		name := strings.TrimSpace(a.Name())
		if name == "" {
			return nil, fmt.Errorf("provider with empty name")
		}
		if _, dup := r.adapters[name]; dup {
			return nil, fmt.Errorf("provider %q registered twice", name)
		}
		r.adapters[name] = a
	}
	return r, nil
}

func (r *Registry) Get(name string) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.adapters[name]
	return a, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
