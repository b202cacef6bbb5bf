package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const DefaultSelection = "weighted"

var (
	ErrSelectorExists   = errors.New("selector already registered")
	ErrSelectorNotFound = errors.New("selector not found")
)

var selectorRegistry = struct {
	mu sync.RWMutex
	m  map[string]Selector
}{
	m: builtinSelectors(),
}

func builtinSelectors() map[string]Selector {
	return map[string]Selector{
		"weighted":   WeightedSelector{},
		"tournament": TournamentSelector{TournamentSize: 3},
		"elite":      EliteSelector{},
	}
}

// RegisterSelector makes a parent selection strategy resolvable by name.
func RegisterSelector(name string, selector Selector) error {
	if name == "" {
		return errors.New("selector name is required")
	}
	if selector == nil {
		return errors.New("selector is required")
	}

	selectorRegistry.mu.Lock()
	defer selectorRegistry.mu.Unlock()

	if _, exists := selectorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrSelectorExists, name)
	}
	selectorRegistry.m[name] = selector
	return nil
}

// ResolveSelector returns the selector registered under name; an empty name
// resolves to DefaultSelection.
func ResolveSelector(name string) (Selector, error) {
	if name == "" {
		name = DefaultSelection
	}

	selectorRegistry.mu.RLock()
	selector, ok := selectorRegistry.m[name]
	selectorRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSelectorNotFound, name)
	}
	return selector, nil
}

func ListSelectors() []string {
	selectorRegistry.mu.RLock()
	defer selectorRegistry.mu.RUnlock()

	names := make([]string, 0, len(selectorRegistry.m))
	for name := range selectorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetSelectorRegistryForTests() {
	selectorRegistry.mu.Lock()
	defer selectorRegistry.mu.Unlock()
	selectorRegistry.m = builtinSelectors()
}
