package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenflow/screenflow/internal/host/memory"
	"github.com/screenflow/screenflow/internal/navigation"
)

type view struct {
	d navigation.Descriptor
}

func (v *view) Descriptor() navigation.Descriptor { return v.d }

func newManager(t *testing.T) (*Manager, *navigation.Coordinator) {
	t.Helper()
	return newManagerWith(t, memory.New())
}

func newManagerWith(t *testing.T, host navigation.Host) (*Manager, *navigation.Coordinator) {
	t.Helper()
	resolver := navigation.NewResolver()
	for _, kind := range []string{"home", "detail", "intro", "step", "sheet"} {
		require.NoError(t, resolver.Register(kind, "", func(d navigation.Descriptor) (any, error) {
			return &view{d: d}, nil
		}))
	}
	coord := navigation.NewCoordinator(host, resolver, nil)
	bridge := navigation.NewBridge(coord, nil)
	t.Cleanup(bridge.Close)
	return NewManager(coord, t.TempDir(), nil), coord
}

func push(t *testing.T, coord *navigation.Coordinator, kind, title string) {
	t.Helper()
	require.NoError(t, coord.PushPage(context.Background(), navigation.NewPage(kind, title, ""), "", false, false))
}

func TestSaveGetDelete(t *testing.T) {
	m, coord := newManager(t)
	push(t, coord, "home", "Home")
	push(t, coord, "detail", "Detail")

	s, err := m.Save("checkpoint")
	require.NoError(t, err)
	assert.Equal(t, "checkpoint", s.Name)
	require.Len(t, s.Default, 2)
	assert.Equal(t, "home", s.Default[0].Kind)
	assert.Equal(t, "Detail", s.Default[1].Title)

	loaded, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, s.Default, loaded.Default)

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	m, coord := newManager(t)
	push(t, coord, "home", "Home")

	_, err := m.Save("first")
	require.NoError(t, err)
	_, err = m.Save("second")
	require.NoError(t, err)

	sessions, err := m.List()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.False(t, sessions[0].SavedAt.Before(sessions[1].SavedAt))
}

func TestListEmptyDir(t *testing.T) {
	m, _ := newManager(t)
	sessions, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRestoreRoundTrip(t *testing.T) {
	m, coord := newManager(t)
	ctx := context.Background()

	push(t, coord, "home", "Home")
	push(t, coord, "detail", "Detail")

	s, err := m.Save("trip")
	require.NoError(t, err)

	// Drift away from the saved state.
	push(t, coord, "detail", "Other")
	require.NoError(t, coord.PushModal(ctx, navigation.NewPage("sheet", "Sheet", ""), ""))

	require.NoError(t, m.Restore(ctx, s.ID))

	assert.Equal(t, 0, coord.ModalStack().Size())
	items := coord.DefaultStack().Current()
	require.Len(t, items, 2)
	assert.Equal(t, "home", items[0].Kind())
	assert.Equal(t, "Home", items[0].Title())
	assert.Equal(t, "detail", items[1].Kind())
}

func TestRestoreContainerModal(t *testing.T) {
	m, coord := newManager(t)
	ctx := context.Background()

	push(t, coord, "home", "Home")
	cont := navigation.NewContainer("wizard", "", navigation.NewPage("intro", "Intro", ""))
	require.NoError(t, coord.PushModal(ctx, cont, ""))
	push(t, coord, "step", "Step 2") // lands on the container's stack

	s, err := m.Save("wizard")
	require.NoError(t, err)
	require.Len(t, s.Modals, 1)
	assert.True(t, s.Modals[0].Container)
	require.Len(t, s.Modals[0].Pages, 2)

	require.NoError(t, m.Restore(ctx, s.ID))

	require.Equal(t, 1, coord.ModalStack().Size())
	restored, ok := coord.ModalStack().Top().(*navigation.Container)
	require.True(t, ok)
	pages := restored.Pages().Current()
	require.Len(t, pages, 2)
	assert.Equal(t, "intro", pages[0].Kind())
	assert.Equal(t, "step", pages[1].Kind())
	assert.Equal(t, "Step 2", pages[1].Title())
}

// laggedHost delivers modal-pop notifications after PopModal has already
// returned, like a platform that marshals events onto its own loop.
type laggedHost struct {
	*memory.Host
}

func (h *laggedHost) SubscribeModalPops(fn func(navigation.Screen)) (cancel func()) {
	return h.Host.SubscribeModalPops(func(s navigation.Screen) {
		go func() {
			time.Sleep(50 * time.Millisecond)
			fn(s)
		}()
	})
}

func TestRestoreOverLaggedModalDismissal(t *testing.T) {
	m, coord := newManagerWith(t, &laggedHost{Host: memory.New()})
	ctx := context.Background()

	push(t, coord, "home", "Home")
	push(t, coord, "detail", "Detail")
	s, err := m.Save("lagged")
	require.NoError(t, err)

	require.NoError(t, coord.PushModal(ctx, navigation.NewPage("sheet", "Sheet", ""), ""))

	require.NoError(t, m.Restore(ctx, s.ID))

	assert.Equal(t, 0, coord.ModalStack().Size())
	items := coord.DefaultStack().Current()
	require.Len(t, items, 2)
	assert.Equal(t, "home", items[0].Kind())
	assert.Equal(t, "detail", items[1].Kind())
}

func TestRestoreOverLaggedContainerDismissal(t *testing.T) {
	m, coord := newManagerWith(t, &laggedHost{Host: memory.New()})
	ctx := context.Background()

	push(t, coord, "home", "Home")
	s, err := m.Save("plain")
	require.NoError(t, err)

	cont := navigation.NewContainer("wizard", "", navigation.NewPage("intro", "Intro", ""))
	require.NoError(t, coord.PushModal(ctx, cont, ""))

	require.NoError(t, m.Restore(ctx, s.ID))

	assert.Equal(t, 0, coord.ModalStack().Size())
	// The replay must not leak into the container dismissed moments before.
	assert.Len(t, cont.Pages().Current(), 1)
	items := coord.DefaultStack().Current()
	require.Len(t, items, 1)
	assert.Equal(t, "home", items[0].Kind())
}

func TestRestoreMissingSession(t *testing.T) {
	m, _ := newManager(t)
	assert.Error(t, m.Restore(context.Background(), "nope"))
}

func TestRestoreRejectsEmptyDefault(t *testing.T) {
	m, coord := newManager(t)

	s, err := m.Save("empty")
	require.NoError(t, err)
	require.Empty(t, s.Default)

	err = m.Restore(context.Background(), s.ID)
	assert.Error(t, err)
	assert.Equal(t, 0, coord.DefaultStack().Size())
}
