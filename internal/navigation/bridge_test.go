package navigation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHost records subscriptions and lets tests emit pop notifications
// directly, without any real host behavior behind the commands.
type stubHost struct {
	mu       sync.Mutex
	pagePops map[string]func(Screen)
	modalPop func(Screen)
}

func newStubHost() *stubHost {
	return &stubHost{pagePops: make(map[string]func(Screen))}
}

func (h *stubHost) PushPage(context.Context, Screen, bool) error { return nil }
func (h *stubHost) PopPage(context.Context, bool) error { return nil }
func (h *stubHost) InsertPage(int, Screen) error { return nil }
func (h *stubHost) RemovePage(int) error { return nil }
func (h *stubHost) PushModal(context.Context, Screen, string) error { return nil }
func (h *stubHost) PopModal(context.Context) error { return nil }

func (h *stubHost) SubscribePagePops(containerID string, fn func(Screen)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pagePops[containerID] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.pagePops, containerID)
	}
}

func (h *stubHost) SubscribeModalPops(fn func(Screen)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.modalPop = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.modalPop = nil
	}
}

func (h *stubHost) emitPagePop(containerID string, s Screen) {
	h.mu.Lock()
	fn := h.pagePops[containerID]
	h.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (h *stubHost) emitModalPop(s Screen) {
	h.mu.Lock()
	fn := h.modalPop
	h.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func newBridgedCoordinator(t *testing.T) (*Coordinator, *Bridge, *stubHost) {
	t.Helper()
	host := newStubHost()
	coord := NewCoordinator(host, NewResolver(), nil)
	bridge := NewBridge(coord, nil)
	t.Cleanup(bridge.Close)
	return coord, bridge, host
}

func TestBridgeReconcilesMatchingPagePop(t *testing.T) {
	coord, _, host := newBridgedCoordinator(t)

	a := NewPage("a", "A", "")
	b := NewPage("b", "B", "")
	coord.defaultStack.append(a)
	coord.defaultStack.append(b)

	host.emitPagePop(RootContainerID, &fakeScreen{d: b})

	items := coord.DefaultStack().Current()
	require.Len(t, items, 1)
	assert.Same(t, a, items[0])
}

func TestBridgeIgnoresForeignPagePop(t *testing.T) {
	coord, _, host := newBridgedCoordinator(t)

	a := NewPage("a", "A", "")
	coord.defaultStack.append(a)

	// A pop for a descriptor that is not the current top is stale or
	// foreign and must not touch the model.
	host.emitPagePop(RootContainerID, &fakeScreen{d: NewPage("x", "X", "")})

	items := coord.DefaultStack().Current()
	require.Len(t, items, 1)
	assert.Same(t, a, items[0])
}

func TestBridgeIgnoresPagePopWhilePlainModalShown(t *testing.T) {
	coord, _, host := newBridgedCoordinator(t)

	a := NewPage("a", "A", "")
	coord.defaultStack.append(a)
	coord.modal.append(NewPage("sheet", "Sheet", ""))

	// No current stack: the notification has nowhere to apply.
	host.emitPagePop(RootContainerID, &fakeScreen{d: a})

	assert.Equal(t, 1, coord.DefaultStack().Size())
}

func TestBridgeModalPopRemovesTop(t *testing.T) {
	coord, _, host := newBridgedCoordinator(t)

	sheet := NewPage("sheet", "Sheet", "")
	coord.modal.append(sheet)

	host.emitModalPop(&fakeScreen{d: sheet})

	assert.Equal(t, 0, coord.ModalStack().Size())
}

func TestBridgeModalPopUnbindsContainer(t *testing.T) {
	coord, bridge, host := newBridgedCoordinator(t)

	cont := NewContainer("onboarding", "", NewPage("intro", "Intro", ""))
	coord.modal.append(cont)
	bridge.bindContainer(cont)

	host.mu.Lock()
	_, bound := host.pagePops[cont.ID()]
	host.mu.Unlock()
	require.True(t, bound)

	host.emitModalPop(nil)

	assert.Equal(t, 0, coord.ModalStack().Size())
	host.mu.Lock()
	_, bound = host.pagePops[cont.ID()]
	host.mu.Unlock()
	assert.False(t, bound, "container subscription should be released with the modal")
}

func TestBridgeModalPopUnderflow(t *testing.T) {
	coord, bridge, host := newBridgedCoordinator(t)

	var desync error
	bridge.OnDesync = func(err error) { desync = err }

	host.emitModalPop(nil)

	assert.ErrorIs(t, desync, ErrStackUnderflow)
	assert.Equal(t, 0, coord.ModalStack().Size())
}

func TestBridgeCloseReleasesSubscriptions(t *testing.T) {
	coord, bridge, host := newBridgedCoordinator(t)

	a := NewPage("a", "A", "")
	coord.defaultStack.append(a)
	coord.defaultStack.append(NewPage("b", "B", ""))

	bridge.Close()

	host.emitPagePop(RootContainerID, &fakeScreen{d: coord.defaultStack.Top()})
	assert.Equal(t, 2, coord.DefaultStack().Size())
}
