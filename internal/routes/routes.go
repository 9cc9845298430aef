package routes

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/screenflow/screenflow/internal/navigation"
)

// Route declares a navigable screen kind in the manifest.
type Route struct {
	Kind     string         `yaml:"kind"`
	Title    string         `yaml:"title"`
	Contract string         `yaml:"contract"`
	View     map[string]any `yaml:"view"`

	// Container marks a kind presented as a modal with its own nested page
	// stack; Pages lists the kinds its stack is seeded with.
	Container bool     `yaml:"container"`
	Pages     []string `yaml:"pages"`
}

// Manifest is the YAML route table loaded at startup.
type Manifest struct {
	Routes []Route `yaml:"routes"`
}

// Load reads and parses a route manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("routes: read %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("routes: parse %s: %w", path, err)
	}
	return &m, nil
}

// Table indexes routes by kind and constructs descriptors for them.
type Table struct {
	byKind map[string]Route
}

// Build validates the manifest, registers a screen factory per route with
// the resolver and returns the lookup table.
func Build(m *Manifest, resolver *navigation.Resolver) (*Table, error) {
	t := &Table{byKind: make(map[string]Route, len(m.Routes))}

	for _, r := range m.Routes {
		if r.Kind == "" {
			return nil, fmt.Errorf("routes: route with empty kind")
		}
		if _, dup := t.byKind[r.Kind]; dup {
			return nil, fmt.Errorf("routes: duplicate kind %q", r.Kind)
		}
		if r.Container && len(r.Pages) == 0 {
			return nil, fmt.Errorf("routes: container %q has no pages", r.Kind)
		}
		t.byKind[r.Kind] = r
	}

	for _, r := range m.Routes {
		for _, page := range r.Pages {
			child, ok := t.byKind[page]
			if !ok {
				return nil, fmt.Errorf("routes: container %q references unknown kind %q", r.Kind, page)
			}
			if child.Container {
				return nil, fmt.Errorf("routes: container %q cannot nest container %q", r.Kind, page)
			}
		}
		if r.Container {
			continue // containers are never resolved directly, their pages are
		}
		route := r
		err := resolver.Register(route.Kind, route.Contract, func(d navigation.Descriptor) (any, error) {
			return &View{descriptor: d, Payload: route.View}, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Lookup returns the route declared for kind.
func (t *Table) Lookup(kind string) (Route, bool) {
	r, ok := t.byKind[kind]
	return r, ok
}

// NewDescriptor creates a fresh descriptor for kind: a page for plain
// routes, a container seeded with its declared pages for container routes.
func (t *Table) NewDescriptor(kind string) (navigation.Descriptor, error) {
	r, ok := t.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", navigation.ErrResolutionFailed, kind)
	}
	if !r.Container {
		return navigation.NewPage(r.Kind, r.Title, r.Contract), nil
	}

	pages := make([]navigation.Descriptor, 0, len(r.Pages))
	for _, page := range r.Pages {
		child := t.byKind[page]
		pages = append(pages, navigation.NewPage(child.Kind, child.Title, child.Contract))
	}
	return navigation.NewContainer(r.Kind, r.Contract, pages...), nil
}

// View is the renderable screen handed to the host: the descriptor plus the
// declarative payload the renderer draws from.
type View struct {
	descriptor navigation.Descriptor
	Payload    map[string]any
}

// Descriptor returns the identity this view renders.
func (v *View) Descriptor() navigation.Descriptor { return v.descriptor }

// Render returns the declarative payload a remote renderer draws from.
func (v *View) Render() map[string]any { return v.Payload }
