package navigation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/screenflow/screenflow/internal/infrastructure/logging"
	"github.com/screenflow/screenflow/internal/infrastructure/monitoring"
)

// Coordinator orchestrates navigation: it resolves descriptors into host
// screens, commands the host, awaits completion and only then mutates the
// relevant stack model. It owns the ordering of model mutations relative to
// host-originated events.
//
// Operations serialize on the coordinator, so for a single stack mutations
// apply in the order operations were issued. Model state shared with the
// bridge's reconciliation path is guarded separately so a reconciliation
// callback arriving while an operation awaits the host cannot deadlock.
type Coordinator struct {
	opMu    sync.Mutex // operation serialization, held across host awaits
	stateMu sync.Mutex // model mutations, shared with the bridge

	defaultStack *StackModel
	modal        *StackModel
	selector     *Selector

	host     Host
	resolver *Resolver
	bridge   *Bridge
	quirks   Quirks

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewCoordinator creates a coordinator with fresh default and modal stacks.
// Both stacks live for the life of the coordinator.
func NewCoordinator(host Host, resolver *Resolver, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	defaultStack := NewStackModel("default")
	modal := NewStackModel("modal")
	c := &Coordinator{
		defaultStack: defaultStack,
		modal:        modal,
		selector:     NewSelector(defaultStack, modal),
		host:         host,
		resolver:     resolver,
		quirks:       hostQuirks(host),
		logger:       logger,
	}
	return c
}

// WithMetrics adds metrics tracking to the coordinator.
func (c *Coordinator) WithMetrics(m *monitoring.Metrics) *Coordinator {
	c.metrics = m
	return c
}

// DefaultStack returns the default navigation stack model.
func (c *Coordinator) DefaultStack() *StackModel { return c.defaultStack }

// ModalStack returns the modal stack model.
func (c *Coordinator) ModalStack() *StackModel { return c.modal }

// CurrentStack returns the stack operations would target right now, or nil
// when a plain modal is on top.
func (c *Coordinator) CurrentStack() *StackModel { return c.selector.Current() }

// PushPage resolves d and pushes it onto the current stack. With resetStack
// the pushed page becomes the stack's only entry: on an empty stack it is
// pushed as the first page; otherwise it is inserted beneath the existing
// pages and everything above it is unwound, since hosts disallow replacing
// the displayed root directly.
func (c *Coordinator) PushPage(ctx context.Context, d Descriptor, contract string, resetStack, animate bool) (err error) {
	defer c.observe("push_page", time.Now(), &err)
	if d == nil {
		return ErrNullArgument
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	cur := c.selector.Current()
	if cur == nil {
		return fmt.Errorf("%w: no current stack, a plain modal is on top", ErrInvalidState)
	}
	items := cur.Current()

	// First-screen creation must happen inline: the host rejects commands
	// until it has an initial page. With a root in place resolution moves
	// off the caller's loop so it does not block interactive work.
	screen, err := c.resolveScreen(ctx, d, contract, len(items) > 0)
	if err != nil {
		return err
	}

	if resetStack && len(items) > 0 {
		return c.resetToPage(ctx, cur, items, d, screen, animate)
	}

	if err := c.host.PushPage(ctx, screen, animate); err != nil {
		return fmt.Errorf("host push %q: %w", d.Title(), err)
	}

	c.stateMu.Lock()
	cur.append(d)
	c.stateMu.Unlock()
	c.logMutation("page pushed", cur, d)
	return nil
}

// resetToPage replaces the root of cur with d: insert the new page beneath
// everything, bulk-remove the old pages except the displayed top, then pop
// that top through the normal host path so exactly one transition plays.
func (c *Coordinator) resetToPage(ctx context.Context, cur *StackModel, items []Descriptor, d Descriptor, screen Screen, animate bool) error {
	if err := c.host.InsertPage(0, screen); err != nil {
		return fmt.Errorf("host insert %q: %w", d.Title(), err)
	}

	// After the insert the old pages sit at host indices 1..len(items).
	// The old top stays for the animated pop.
	for i := len(items) - 1; i >= 1; i-- {
		if err := c.host.RemovePage(i); err != nil {
			return fmt.Errorf("host remove at %d: %w", i, err)
		}
	}

	c.stateMu.Lock()
	cur.replaceAll([]Descriptor{d})
	c.stateMu.Unlock()
	c.logMutation("stack reset", cur, d)

	// The pop notification for the old top no longer matches the model's
	// top entry, so reconciliation ignores it.
	if err := c.host.PopPage(ctx, animate); err != nil {
		return fmt.Errorf("host pop during reset: %w", err)
	}
	return nil
}

// PopPage pops the top page of the current stack. Popping the last
// remaining page is not supported and fails with ErrOutOfRange.
func (c *Coordinator) PopPage(ctx context.Context, animate bool) (err error) {
	defer c.observe("pop_page", time.Now(), &err)
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.popPages(ctx, nil, 1, animate)
}

// PopPages pops count pages. All but the topmost doomed page are removed
// directly from host and model without animation; only the topmost goes
// through the host pop path, so exactly one host pop completion and one pop
// notification occur per call.
func (c *Coordinator) PopPages(ctx context.Context, count int, animateLast bool) (err error) {
	defer c.observe("pop_pages", time.Now(), &err)
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.popPages(ctx, nil, count, animateLast)
}

// PopToPage pops everything above index. Popping to the current top is a
// no-op.
func (c *Coordinator) PopToPage(ctx context.Context, index int) (err error) {
	defer c.observe("pop_to_page", time.Now(), &err)
	c.opMu.Lock()
	defer c.opMu.Unlock()

	cur := c.selector.Current()
	if cur == nil {
		return fmt.Errorf("%w: no current stack", ErrOutOfRange)
	}
	size := cur.Size()
	if index < 0 || index >= size {
		return fmt.Errorf("%w: index %d, size %d", ErrOutOfRange, index, size)
	}
	if index == size-1 {
		return nil
	}
	return c.popPages(ctx, cur, size-1-index, false)
}

// PopToRoot pops everything above the bottom page.
func (c *Coordinator) PopToRoot(ctx context.Context) (err error) {
	defer c.observe("pop_to_root", time.Now(), &err)
	c.opMu.Lock()
	defer c.opMu.Unlock()

	cur := c.selector.Current()
	if cur == nil {
		return fmt.Errorf("%w: no current stack", ErrOutOfRange)
	}
	size := cur.Size()
	if size <= 1 {
		return nil
	}
	return c.popPages(ctx, cur, size-1, false)
}

// popPages removes count pages from cur (resolved from the selector when
// nil). Callers hold the operation lock. count must leave at least one page
// behind.
func (c *Coordinator) popPages(ctx context.Context, cur *StackModel, count int, animateLast bool) error {
	if cur == nil {
		cur = c.selector.Current()
		if cur == nil {
			return fmt.Errorf("%w: no current stack", ErrOutOfRange)
		}
	}
	items := cur.Current()
	size := len(items)
	if count <= 0 || count >= size {
		return fmt.Errorf("%w: pop %d of %d", ErrOutOfRange, count, size)
	}

	top := items[size-1]

	if count > 1 {
		// Bulk range straight off the host, highest index first so the
		// remaining indices stay valid. No animation, no events.
		for i := size - 2; i >= size-count; i-- {
			if err := c.host.RemovePage(i); err != nil {
				return fmt.Errorf("host remove at %d: %w", i, err)
			}
		}
		remaining := make([]Descriptor, 0, size-count+1)
		remaining = append(remaining, items[:size-count]...)
		remaining = append(remaining, top)
		c.stateMu.Lock()
		cur.replaceAll(remaining)
		c.stateMu.Unlock()
		c.logMutation("pages removed", cur, top)
	}

	if err := c.host.PopPage(ctx, animateLast); err != nil {
		return fmt.Errorf("host pop %q: %w", top.Title(), err)
	}
	c.confirmRemoveTop(cur, top, "page popped")
	return nil
}

// confirmRemoveTop removes victim from the top of s unless reconciliation
// already absorbed the host's pop notification for it. Exactly one of the
// two paths mutates the model for a given pop.
func (c *Coordinator) confirmRemoveTop(s *StackModel, victim Descriptor, msg string) {
	c.stateMu.Lock()
	if top := s.Top(); top != nil && top == victim {
		s.removeTop()
		c.stateMu.Unlock()
		c.logMutation(msg, s, victim)
		return
	}
	c.stateMu.Unlock()
}

// InsertPage places d at index in the current stack, beneath the top. No
// animation, no host events.
func (c *Coordinator) InsertPage(index int, d Descriptor, contract string) (err error) {
	defer c.observe("insert_page", time.Now(), &err)
	if d == nil {
		return ErrNullArgument
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	cur := c.selector.Current()
	if cur == nil {
		return fmt.Errorf("%w: no current stack", ErrInvalidState)
	}
	size := cur.Size()
	if index < 0 || index >= size {
		return fmt.Errorf("%w: index %d, size %d", ErrOutOfRange, index, size)
	}

	screen, err := c.resolver.Resolve(d, contract)
	if err != nil {
		return err
	}
	if err := c.host.InsertPage(index, screen); err != nil {
		return fmt.Errorf("host insert %q: %w", d.Title(), err)
	}

	c.stateMu.Lock()
	cur.insertAt(index, d)
	c.stateMu.Unlock()
	c.logMutation("page inserted", cur, d)
	return nil
}

// RemovePage drops the page at index from the current stack. Removing the
// only page would empty a live stack and fails with ErrOutOfRange.
func (c *Coordinator) RemovePage(index int) (err error) {
	defer c.observe("remove_page", time.Now(), &err)
	c.opMu.Lock()
	defer c.opMu.Unlock()

	cur := c.selector.Current()
	if cur == nil {
		return fmt.Errorf("%w: no current stack", ErrInvalidState)
	}
	items := cur.Current()
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: index %d, size %d", ErrOutOfRange, index, len(items))
	}
	if len(items) == 1 {
		return fmt.Errorf("%w: cannot remove the last page", ErrOutOfRange)
	}

	if err := c.host.RemovePage(index); err != nil {
		return fmt.Errorf("host remove at %d: %w", index, err)
	}

	c.stateMu.Lock()
	cur.removeAt(index)
	c.stateMu.Unlock()
	c.logMutation("page removed", cur, items[index])
	return nil
}

// PushModal presents d above everything else. A container descriptor is
// pushed as its first embedded page wrapped in a new navigation container;
// its nested stack becomes the current stack once the modal lands.
func (c *Coordinator) PushModal(ctx context.Context, d Descriptor, contract string) (err error) {
	defer c.observe("push_modal", time.Now(), &err)
	if d == nil {
		return fmt.Errorf("%w: modal descriptor", ErrNullArgument)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if cont, ok := d.(*Container); ok {
		pages := cont.Pages().Current()
		if len(pages) == 0 {
			return fmt.Errorf("%w: container %q has no pages", ErrInvalidState, cont.Kind())
		}
		screen, err := c.resolver.Resolve(pages[0], pages[0].Contract())
		if err != nil {
			return err
		}
		if err := c.host.PushModal(ctx, screen, cont.ID()); err != nil {
			return fmt.Errorf("host push modal %q: %w", cont.Title(), err)
		}
		if c.bridge != nil {
			c.bridge.bindContainer(cont)
		}
	} else {
		screen, err := c.resolver.Resolve(d, contract)
		if err != nil {
			return err
		}
		if err := c.host.PushModal(ctx, screen, ""); err != nil {
			return fmt.Errorf("host push modal %q: %w", d.Title(), err)
		}
	}

	c.stateMu.Lock()
	c.modal.append(d)
	c.stateMu.Unlock()
	c.logMutation("modal pushed", c.modal, d)
	return nil
}

// PopModal dismisses the top modal through the host. The modal model is
// mutated only by the reconciliation path: host modal-pop completion and the
// host's own pop notification race depending on platform, so a single
// authoritative point absorbs both.
func (c *Coordinator) PopModal(ctx context.Context) (err error) {
	defer c.observe("pop_modal", time.Now(), &err)
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.modal.Size() == 0 {
		return fmt.Errorf("%w: no modal to pop", ErrInvalidState)
	}
	if err := c.host.PopModal(ctx); err != nil {
		return fmt.Errorf("host pop modal: %w", err)
	}
	return nil
}

// PushAndReplaceTop atomically replaces the top of the current stack with d,
// for hosts that cannot push and pop as one visual transition. The outgoing
// page is captured before the push and removed once the push completes; it
// is not re-read afterward, so a concurrent host-event removal cannot
// select the wrong victim.
func (c *Coordinator) PushAndReplaceTop(ctx context.Context, d Descriptor, animate bool) (err error) {
	defer c.observe("replace_top", time.Now(), &err)
	if d == nil {
		return ErrNullArgument
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	cur := c.selector.Current()
	if cur == nil {
		return fmt.Errorf("%w: no current stack", ErrInvalidState)
	}
	items := cur.Current()
	if len(items) == 0 {
		return fmt.Errorf("%w: nothing to replace", ErrOutOfRange)
	}
	prev := items[len(items)-1]

	screen, err := c.resolveScreen(ctx, d, d.Contract(), true)
	if err != nil {
		return err
	}

	if c.quirks.DropsSourceOnReplace {
		// This host family drops the outgoing page from its own stack as a
		// side effect of the push, so only the model needs the
		// compensating pop, and it must happen before the push lands.
		c.confirmRemoveTop(cur, prev, "page replaced")
	}

	if err := c.host.PushPage(ctx, screen, animate); err != nil {
		return fmt.Errorf("host push %q: %w", d.Title(), err)
	}

	c.stateMu.Lock()
	cur.append(d)
	c.stateMu.Unlock()
	c.logMutation("page pushed", cur, d)

	if !c.quirks.DropsSourceOnReplace {
		c.removeByIdentity(cur, prev)
	}
	return nil
}

// removeByIdentity removes prev from host and model at whatever index it
// now occupies. A miss means a host event already took it; nothing to do.
// The host call happens outside the state lock so a concurrent event
// delivery cannot interlock with it; the index is re-verified before the
// model mutation.
func (c *Coordinator) removeByIdentity(s *StackModel, prev Descriptor) {
	index := indexOf(s.Current(), prev)
	if index < 0 {
		return
	}

	if err := c.host.RemovePage(index); err != nil {
		c.logger.Warn("host remove during replace failed",
			zap.String("title", prev.Title()), zap.Error(err))
		return
	}

	c.stateMu.Lock()
	if i := indexOf(s.Current(), prev); i >= 0 {
		s.removeAt(i)
		c.stateMu.Unlock()
		c.logMutation("page replaced", s, prev)
		return
	}
	c.stateMu.Unlock()
}

func indexOf(items []Descriptor, d Descriptor) int {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i] == d {
			return i
		}
	}
	return -1
}

// resolveScreen resolves d, off the caller's goroutine when offLoop is set.
func (c *Coordinator) resolveScreen(ctx context.Context, d Descriptor, contract string, offLoop bool) (Screen, error) {
	if !offLoop {
		return c.resolver.Resolve(d, contract)
	}

	type result struct {
		screen Screen
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := c.resolver.Resolve(d, contract)
		ch <- result{screen: s, err: err}
	}()
	select {
	case r := <-ch:
		return r.screen, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coordinator) logMutation(msg string, s *StackModel, d Descriptor) {
	c.logger.Debug(msg,
		zap.String("stack", s.Name()),
		zap.String("title", d.Title()),
		zap.String("contract", d.Contract()),
		zap.Int("depth", s.Size()),
	)
	if c.metrics != nil {
		c.metrics.StackDepth.WithLabelValues(s.Name()).Set(float64(s.Size()))
	}
}

func (c *Coordinator) observe(op string, start time.Time, err *error) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if *err != nil {
		status = "error"
	}
	c.metrics.NavOps.WithLabelValues(op, status).Inc()
	c.metrics.NavOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
