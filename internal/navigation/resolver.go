package navigation

import (
	"fmt"
	"sync"
)

// Factory produces a view for a descriptor. The result must implement
// Screen; anything else fails resolution with ErrNotAScreen.
type Factory func(d Descriptor) (any, error)

type factoryKey struct {
	kind     string
	contract string
}

// Resolver maps a descriptor's kind and contract to a screen factory.
// Registration happens once at startup; Resolve is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	factories map[factoryKey]Factory
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{factories: make(map[factoryKey]Factory)}
}

// Register binds a factory to a descriptor kind and contract. The empty
// contract is the default variant.
func (r *Resolver) Register(kind, contract string, f Factory) error {
	if kind == "" {
		return fmt.Errorf("resolver: kind cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("resolver: factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[factoryKey{kind: kind, contract: contract}] = f
	return nil
}

// Resolve produces the host-displayable screen for d. The contract narrows
// the lookup; when no factory is bound for the exact contract the default
// variant is not consulted; an unbound pair is ErrResolutionFailed.
func (r *Resolver) Resolve(d Descriptor, contract string) (Screen, error) {
	if d == nil {
		return nil, ErrNullArgument
	}

	r.mu.RLock()
	f, ok := r.factories[factoryKey{kind: d.Kind(), contract: contract}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no factory for kind %q contract %q", ErrResolutionFailed, d.Kind(), contract)
	}

	view, err := f(d)
	if err != nil {
		return nil, fmt.Errorf("%w: kind %q: %v", ErrResolutionFailed, d.Kind(), err)
	}

	screen, ok := view.(Screen)
	if !ok {
		return nil, fmt.Errorf("%w: kind %q produced %T", ErrNotAScreen, d.Kind(), view)
	}
	return screen, nil
}
