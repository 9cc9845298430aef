package routes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenflow/screenflow/internal/navigation"
)

func manifest() *Manifest {
	return &Manifest{Routes: []Route{
		{Kind: "home", Title: "Home", View: map[string]any{"layout": "list"}},
		{Kind: "settings", Title: "Settings", Contract: "form"},
		{Kind: "intro", Title: "Welcome"},
		{Kind: "onboarding", Container: true, Pages: []string{"intro"}},
	}}
}

func TestBuildAndResolve(t *testing.T) {
	resolver := navigation.NewResolver()
	table, err := Build(manifest(), resolver)
	require.NoError(t, err)

	d, err := table.NewDescriptor("home")
	require.NoError(t, err)
	assert.Equal(t, "home", d.Kind())
	assert.Equal(t, "Home", d.Title())

	screen, err := resolver.Resolve(d, "")
	require.NoError(t, err)
	require.IsType(t, &View{}, screen)
	assert.Same(t, d, screen.Descriptor())
	assert.Equal(t, "list", screen.(*View).Render()["layout"])
}

func TestContractedRoute(t *testing.T) {
	resolver := navigation.NewResolver()
	table, err := Build(manifest(), resolver)
	require.NoError(t, err)

	d, err := table.NewDescriptor("settings")
	require.NoError(t, err)
	assert.Equal(t, "form", d.Contract())

	_, err = resolver.Resolve(d, "form")
	require.NoError(t, err)
	_, err = resolver.Resolve(d, "")
	assert.ErrorIs(t, err, navigation.ErrResolutionFailed)
}

func TestContainerDescriptor(t *testing.T) {
	resolver := navigation.NewResolver()
	table, err := Build(manifest(), resolver)
	require.NoError(t, err)

	d, err := table.NewDescriptor("onboarding")
	require.NoError(t, err)
	cont, ok := d.(*navigation.Container)
	require.True(t, ok)

	pages := cont.Pages().Current()
	require.Len(t, pages, 1)
	assert.Equal(t, "intro", pages[0].Kind())
	assert.Equal(t, "Welcome", cont.Title())

	// Containers are never resolved directly.
	_, err = resolver.Resolve(cont, "")
	assert.ErrorIs(t, err, navigation.ErrResolutionFailed)
}

func TestUnknownKind(t *testing.T) {
	table, err := Build(manifest(), navigation.NewResolver())
	require.NoError(t, err)

	_, err = table.NewDescriptor("missing")
	assert.ErrorIs(t, err, navigation.ErrResolutionFailed)
}

func TestBuildValidation(t *testing.T) {
	cases := []struct {
		name   string
		routes []Route
	}{
		{"empty kind", []Route{{Kind: ""}}},
		{"duplicate kind", []Route{{Kind: "home"}, {Kind: "home"}}},
		{"container without pages", []Route{{Kind: "wizard", Container: true}}},
		{"container with unknown page", []Route{{Kind: "wizard", Container: true, Pages: []string{"ghost"}}}},
		{"nested containers", []Route{
			{Kind: "inner", Container: true, Pages: []string{"leaf"}},
			{Kind: "leaf"},
			{Kind: "outer", Container: true, Pages: []string{"inner"}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(&Manifest{Routes: tc.routes}, navigation.NewResolver())
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	data := `routes:
  - kind: home
    title: Home
    view:
      layout: list
  - kind: onboarding
    container: true
    pages: [intro]
  - kind: intro
    title: Welcome
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Routes, 3)
	assert.Equal(t, "home", m.Routes[0].Kind)
	assert.True(t, m.Routes[1].Container)
	assert.Equal(t, []string{"intro"}, m.Routes[1].Pages)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
