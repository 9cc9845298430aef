package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/screenflow/screenflow/internal/navigation"
)

// Host is a complete in-process navigation host. It mirrors the observable
// behavior of a real rendering host: commands block for a configurable
// transition latency, programmatic pops emit the same pop notifications a
// user-driven pop would (before the command returns, which is how several
// platforms deliver them), and user pops can be simulated directly.
//
// It backs navd when no renderer is attached and doubles as the test host.
type Host struct {
	mu      sync.Mutex
	root    *container
	modals  []modalEntry
	latency time.Duration

	pageSubs  map[string]map[uint64]func(navigation.Screen)
	modalSubs map[uint64]func(navigation.Screen)
	nextSub   uint64

	counts Counts
}

// Counts reports how many commands of each kind the host has served.
type Counts struct {
	PushPage   int
	PopPage    int
	InsertPage int
	RemovePage int
	PushModal  int
	PopModal   int
}

type container struct {
	id    string
	pages []navigation.Screen
}

type modalEntry struct {
	screen navigation.Screen
	cont   *container
}

// New creates an empty memory host.
func New() *Host {
	return &Host{
		root:      &container{id: navigation.RootContainerID},
		pageSubs:  make(map[string]map[uint64]func(navigation.Screen)),
		modalSubs: make(map[uint64]func(navigation.Screen)),
	}
}

// WithLatency makes every animated transition take d.
func (h *Host) WithLatency(d time.Duration) *Host {
	h.latency = d
	return h
}

// current returns the container page commands act on: the topmost container
// modal, or the root when no container modal is open.
func (h *Host) current() *container {
	for i := len(h.modals) - 1; i >= 0; i-- {
		if h.modals[i].cont != nil {
			return h.modals[i].cont
		}
	}
	return h.root
}

func (h *Host) wait(ctx context.Context) error {
	if h.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(h.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushPage displays s on top of the current container.
func (h *Host) PushPage(ctx context.Context, s navigation.Screen, animate bool) error {
	if err := h.wait(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts.PushPage++
	cur := h.current()
	cur.pages = append(cur.pages, s)
	return nil
}

// PopPage removes the current container's top page and emits the pop
// notification before returning, like hosts that raise the popped event
// during the transition.
func (h *Host) PopPage(ctx context.Context, animate bool) error {
	if err := h.wait(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	h.counts.PopPage++
	cur := h.current()
	if len(cur.pages) == 0 {
		h.mu.Unlock()
		return fmt.Errorf("memory host: container %s has no pages", cur.id)
	}
	popped := cur.pages[len(cur.pages)-1]
	cur.pages = cur.pages[:len(cur.pages)-1]
	subs := h.pageSubsFor(cur.id)
	h.mu.Unlock()

	for _, fn := range subs {
		fn(popped)
	}
	return nil
}

// InsertPage places s at index in the current container.
func (h *Host) InsertPage(index int, s navigation.Screen) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts.InsertPage++
	cur := h.current()
	if index < 0 || index > len(cur.pages) {
		return fmt.Errorf("memory host: insert index %d out of range", index)
	}
	pages := make([]navigation.Screen, 0, len(cur.pages)+1)
	pages = append(pages, cur.pages[:index]...)
	pages = append(pages, s)
	pages = append(pages, cur.pages[index:]...)
	cur.pages = pages
	return nil
}

// RemovePage drops the page at index from the current container, silently.
func (h *Host) RemovePage(index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts.RemovePage++
	cur := h.current()
	if index < 0 || index >= len(cur.pages) {
		return fmt.Errorf("memory host: remove index %d out of range", index)
	}
	cur.pages = append(cur.pages[:index:index], cur.pages[index+1:]...)
	return nil
}

// PushModal presents s above everything. A non-empty containerID opens a
// new navigation container seeded with s.
func (h *Host) PushModal(ctx context.Context, s navigation.Screen, containerID string) error {
	if err := h.wait(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts.PushModal++
	entry := modalEntry{screen: s}
	if containerID != "" {
		entry.cont = &container{id: containerID, pages: []navigation.Screen{s}}
	}
	h.modals = append(h.modals, entry)
	return nil
}

// PopModal dismisses the top modal and emits the modal pop notification
// before returning.
func (h *Host) PopModal(ctx context.Context) error {
	if err := h.wait(ctx); err != nil {
		return err
	}
	return h.popModal()
}

func (h *Host) popModal() error {
	h.mu.Lock()
	h.counts.PopModal++
	if len(h.modals) == 0 {
		h.mu.Unlock()
		return fmt.Errorf("memory host: no modal to pop")
	}
	top := h.modals[len(h.modals)-1]
	h.modals = h.modals[:len(h.modals)-1]
	subs := make([]func(navigation.Screen), 0, len(h.modalSubs))
	for _, fn := range h.modalSubs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(top.screen)
	}
	return nil
}

// UserPopPage simulates the user navigating back in the current container
// (hardware back, swipe gesture).
func (h *Host) UserPopPage() error {
	return h.PopPage(context.Background(), true)
}

// UserPopModal simulates the user dismissing the top modal.
func (h *Host) UserPopModal() error {
	return h.popModal()
}

// SubscribePagePops registers fn for pages popped in the named container.
func (h *Host) SubscribePagePops(containerID string, fn func(navigation.Screen)) (cancel func()) {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	if h.pageSubs[containerID] == nil {
		h.pageSubs[containerID] = make(map[uint64]func(navigation.Screen))
	}
	h.pageSubs[containerID][id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.pageSubs[containerID], id)
		h.mu.Unlock()
	}
}

// SubscribeModalPops registers fn for modal dismissals.
func (h *Host) SubscribeModalPops(fn func(navigation.Screen)) (cancel func()) {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.modalSubs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.modalSubs, id)
		h.mu.Unlock()
	}
}

func (h *Host) pageSubsFor(containerID string) []func(navigation.Screen) {
	subs := make([]func(navigation.Screen), 0, len(h.pageSubs[containerID]))
	for _, fn := range h.pageSubs[containerID] {
		subs = append(subs, fn)
	}
	return subs
}

// PageCount reports how many pages the current container displays.
func (h *Host) PageCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.current().pages)
}

// ModalCount reports how many modals are presented.
func (h *Host) ModalCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.modals)
}

// Counts returns a snapshot of the command counters.
func (h *Host) Counts() Counts {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts
}
