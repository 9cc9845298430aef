package navigation

import (
	"sync"

	"go.uber.org/zap"

	"github.com/screenflow/screenflow/internal/infrastructure/logging"
)

// Bridge absorbs host-originated pops into the authoritative model. It holds
// one page-pop subscription per open navigation container (the root plus one
// per container modal) and a single modal-pop subscription.
//
// A page-pop notification is reconciled by identity: if the popped screen's
// descriptor is not the currently selected stack's top entry the
// notification is stale or foreign and is ignored. That makes reconciliation
// idempotent against the coordinator's own pop path, whichever of the two
// observes the pop first.
type Bridge struct {
	coord  *Coordinator
	host   Host
	logger *logging.Logger

	mu          sync.Mutex
	containers  map[string]func() // container ID -> unsubscribe
	cancelRoot  func()
	cancelModal func()

	// OnDesync is invoked with ErrStackUnderflow when a pop notification
	// arrives for a stack the model believes is empty. The default handler
	// logs at error level; processes that prefer to crash install their
	// own.
	OnDesync func(error)
}

// NewBridge wires a bridge to the coordinator's stacks and subscribes to the
// host's root container and modal pop streams. The caller releases the
// subscriptions with Close.
func NewBridge(coord *Coordinator, logger *logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.NewNop()
	}
	b := &Bridge{
		coord:      coord,
		host:       coord.host,
		logger:     logger,
		containers: make(map[string]func()),
	}
	b.OnDesync = func(err error) {
		b.logger.Error("host and model desynchronized", zap.Error(err))
	}
	b.cancelRoot = b.host.SubscribePagePops(RootContainerID, func(s Screen) {
		b.reconcilePagePop(RootContainerID, s)
	})
	b.cancelModal = b.host.SubscribeModalPops(b.reconcileModalPop)
	coord.bridge = b
	return b
}

// Close releases every host subscription.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelRoot != nil {
		b.cancelRoot()
		b.cancelRoot = nil
	}
	if b.cancelModal != nil {
		b.cancelModal()
		b.cancelModal = nil
	}
	for id, cancel := range b.containers {
		cancel()
		delete(b.containers, id)
	}
}

// bindContainer subscribes to page pops for a newly opened container modal.
// The subscription lives exactly as long as the container sits on the modal
// stack; reconcileModalPop unwinds it.
func (b *Bridge) bindContainer(c *Container) {
	id := c.ID()
	cancel := b.host.SubscribePagePops(id, func(s Screen) {
		b.reconcilePagePop(id, s)
	})
	b.mu.Lock()
	b.containers[id] = cancel
	b.mu.Unlock()
}

// reconcilePagePop absorbs a host-originated page pop. Foreign and stale
// notifications are no-ops.
func (b *Bridge) reconcilePagePop(containerID string, popped Screen) {
	if popped == nil {
		return
	}
	d := popped.Descriptor()

	b.coord.stateMu.Lock()
	cur := b.coord.selector.Current()
	if cur == nil || cur.Top() != d {
		b.coord.stateMu.Unlock()
		b.logger.Debug("ignoring foreign page pop",
			zap.String("container", containerID),
			zap.String("title", d.Title()),
		)
		b.track("page_pop", "ignored")
		return
	}
	cur.removeTop()
	b.coord.stateMu.Unlock()

	b.logger.Debug("host page pop reconciled",
		zap.String("container", containerID),
		zap.String("title", d.Title()),
		zap.String("contract", d.Contract()),
	)
	b.track("page_pop", "applied")
	b.trackDepth(cur)
}

// reconcileModalPop absorbs a host-originated modal dismissal. The model is
// the source of truth for what was removed; the notification only signals
// that something was. Host and model modal stacks are kept one to one, so
// the top entry is removed unconditionally.
func (b *Bridge) reconcileModalPop(Screen) {
	b.coord.stateMu.Lock()
	top := b.coord.modal.removeTop()
	b.coord.stateMu.Unlock()

	if top == nil {
		b.track("modal_pop", "underflow")
		if b.OnDesync != nil {
			b.OnDesync(ErrStackUnderflow)
		}
		return
	}

	if cont, ok := top.(*Container); ok {
		b.mu.Lock()
		if cancel, exists := b.containers[cont.ID()]; exists {
			cancel()
			delete(b.containers, cont.ID())
		}
		b.mu.Unlock()
	}

	b.logger.Debug("host modal pop reconciled",
		zap.String("title", top.Title()),
		zap.String("contract", top.Contract()),
	)
	b.track("modal_pop", "applied")
	b.trackDepth(b.coord.modal)
}

func (b *Bridge) track(kind, outcome string) {
	if b.coord.metrics != nil {
		b.coord.metrics.ReconcileEvents.WithLabelValues(kind, outcome).Inc()
	}
}

func (b *Bridge) trackDepth(s *StackModel) {
	if b.coord.metrics != nil {
		b.coord.metrics.StackDepth.WithLabelValues(s.Name()).Set(float64(s.Size()))
	}
}
