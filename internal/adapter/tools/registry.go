package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ragchat/internal/domain"
)

// Func runs a tool with the raw JSON arguments the model produced.
type Func func(ctx context.Context, arguments string) (string, error)

type entry struct {
	spec domain.ToolSpec
	fn   Func
}

type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

// NewDefaultRegistry returns a registry with the built-in tools.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(WeatherSpec, CurrentWeather)
	return r
}

func (r *Registry) Register(spec domain.ToolSpec, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[spec.Name] = entry{spec: spec, fn: fn}
}

// Specs lists registered tools sorted by name.
func (r *Registry) Specs() []domain.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]domain.ToolSpec, 0, len(r.tools))
	for _, e := range r.tools {
		specs = append(specs, e.spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Name < specs[j].Name
	})
	return specs
}

func (r *Registry) Call(ctx context.Context, name, arguments string) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}
	return e.fn(ctx, arguments)
}
