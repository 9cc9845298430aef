package navigation

import "context"

// RootContainerID names the host's default navigation container. Container
// modals open additional containers identified by their descriptor ID.
const RootContainerID = "root"

// Screen is a resolved, host-displayable view. The host renders it; the
// engine only needs its descriptor back to reconcile host events by
// identity.
type Screen interface {
	Descriptor() Descriptor
}

// Host is the imperative navigation surface. It receives commands, reports
// completion through the method's return, and emits user- or platform-driven
// pop notifications through the subscription streams.
//
// Page commands act on the host's current navigation container (the topmost
// container modal, or the root container when no modal is shown); the
// coordinator guarantees it never issues a page command while a plain modal
// is on top. Completion may be delivered on an arbitrary goroutine; hosts
// backed by a visual tree marshal onto their own loop before emitting
// events.
type Host interface {
	// PushPage displays s on top of the current container and blocks until
	// the transition completes.
	PushPage(ctx context.Context, s Screen, animate bool) error

	// PopPage removes the current container's top page. Hosts also emit the
	// corresponding page-pop notification; the engine deduplicates.
	PopPage(ctx context.Context, animate bool) error

	// InsertPage places s at index in the current container without
	// animation or events.
	InsertPage(index int, s Screen) error

	// RemovePage drops the page at index without animation or events.
	RemovePage(index int) error

	// PushModal presents s above everything else. A non-empty containerID
	// asks the host to wrap s in a new navigation container with that
	// identity; subsequent page commands target it.
	PushModal(ctx context.Context, s Screen, containerID string) error

	// PopModal dismisses the top modal. The host emits the modal-pop
	// notification; the model is mutated only through that path.
	PopModal(ctx context.Context) error

	// SubscribePagePops delivers pages popped by the host itself (back
	// button, swipe gesture) in the named container. One subscription
	// exists per open container.
	SubscribePagePops(containerID string, fn func(Screen)) (cancel func())

	// SubscribeModalPops delivers host-originated modal dismissals.
	SubscribeModalPops(fn func(Screen)) (cancel func())
}

// Quirks describes host platform behaviors the coordinator compensates for.
// Hosts report them by implementing QuirkReporter; absent that, all quirks
// default to false.
type Quirks struct {
	// DropsSourceOnReplace is set when the host removes the outgoing page
	// from its own stack as a side effect of a push that replaces the top
	// page, so no explicit remove must follow.
	DropsSourceOnReplace bool
}

// QuirkReporter is optionally implemented by hosts with known platform
// quirks.
type QuirkReporter interface {
	Quirks() Quirks
}

func hostQuirks(h Host) Quirks {
	if r, ok := h.(QuirkReporter); ok {
		return r.Quirks()
	}
	return Quirks{}
}
