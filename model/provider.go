package model

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrComponentNotFound is returned by providers that do not know a component.
var ErrComponentNotFound = errors.New("component not found")

// Provider is the read-only metadata view consumed by the engine.
type Provider interface {
	// Component returns the metadata of one component version.
	Component(ctx context.Context, id ComponentID) (*Component, error)

	// Versions lists the versions known for a module, in any order.
	Versions(ctx context.Context, module ModuleID) ([]string, error)
}

// MemoryProvider serves components held in memory. It is safe for
// concurrent use.
type MemoryProvider struct {
	mu         sync.RWMutex
	components map[ComponentID]*Component
}

// NewMemoryProvider returns a provider serving components.
func NewMemoryProvider(components ...*Component) *MemoryProvider {
	p := &MemoryProvider{components: make(map[ComponentID]*Component, len(components))}
	for _, c := range components {
		p.Add(c)
	}
	return p
}

// Add registers a component, replacing any previous one with the same id.
func (p *MemoryProvider) Add(c *Component) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.components[c.ID] = c
}

// Component implements Provider.
func (p *MemoryProvider) Component(_ context.Context, id ComponentID) (*Component, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.components[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrComponentNotFound)
	}
	return c, nil
}

// Versions implements Provider.
func (p *MemoryProvider) Versions(_ context.Context, module ModuleID) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []string
	for id := range p.components {
		if id.ModuleID() == module {
			out = append(out, id.Version)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", module, ErrComponentNotFound)
	}
	slices.Sort(out)
	return out, nil
}

// Components returns all registered components sorted by id.
func (p *MemoryProvider) Components() []*Component {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := slices.SortedFunc(maps.Keys(p.components), func(a, b ComponentID) int {
		return strings.Compare(a.String(), b.String())
	})
	out := make([]*Component, len(ids))
	for i, id := range ids {
		out[i] = p.components[id]
	}
	return out
}

// ProviderChain looks modules up in several providers in order. The first
// provider that knows a module serves every later lookup for that module.
type ProviderChain struct {
	providers []Provider

	moduleProvider   map[ModuleID]int
	moduleProviderMu sync.RWMutex
}

// NewProviderChain returns a chain over providers, tried first to last.
func NewProviderChain(providers ...Provider) (*ProviderChain, error) {
	if len(providers) == 0 {
		return nil, errors.New("no providers given")
	}
	return &ProviderChain{
		providers:      providers,
		moduleProvider: make(map[ModuleID]int),
	}, nil
}

// Component implements Provider.
func (pc *ProviderChain) Component(ctx context.Context, id ComponentID) (*Component, error) {
	if i, ok := pc.known(id.ModuleID()); ok {
		return pc.providers[i].Component(ctx, id)
	}

	var errs []error
	for i, p := range pc.providers {
		c, err := p.Component(ctx, id)
		if err == nil {
			pc.remember(id.ModuleID(), i)
			return c, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%s not found in any provider: %w", id, errors.Join(errs...))
}

// Versions implements Provider.
func (pc *ProviderChain) Versions(ctx context.Context, module ModuleID) ([]string, error) {
	if i, ok := pc.known(module); ok {
		return pc.providers[i].Versions(ctx, module)
	}

	var errs []error
	for i, p := range pc.providers {
		vs, err := p.Versions(ctx, module)
		if err == nil {
			pc.remember(module, i)
			return vs, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%s not found in any provider: %w", module, errors.Join(errs...))
}

func (pc *ProviderChain) known(m ModuleID) (int, bool) {
	pc.moduleProviderMu.RLock()
	defer pc.moduleProviderMu.RUnlock()
	i, ok := pc.moduleProvider[m]
	return i, ok
}

func (pc *ProviderChain) remember(m ModuleID, i int) {
	pc.moduleProviderMu.Lock()
	defer pc.moduleProviderMu.Unlock()
	if _, exists := pc.moduleProvider[m]; !exists {
		pc.moduleProvider[m] = i
	}
}

var (
	_ Provider = (*MemoryProvider)(nil)
	_ Provider = (*ProviderChain)(nil)
)
