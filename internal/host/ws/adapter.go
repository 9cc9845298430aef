package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/screenflow/screenflow/internal/infrastructure/logging"
	"github.com/screenflow/screenflow/internal/infrastructure/monitoring"
	"github.com/screenflow/screenflow/internal/infrastructure/resilience"
	"github.com/screenflow/screenflow/internal/navigation"
)

// ErrRendererDetached is returned for commands issued while no renderer is
// attached.
var ErrRendererDetached = errors.New("ws: renderer not attached")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // renderer runs on its own origin in dev
	},
}

// Renderable is implemented by screens that carry a declarative payload for
// a remote renderer.
type Renderable interface {
	Render() map[string]any
}

// Adapter is the navigation host backed by a renderer attached over a
// WebSocket. Commands are JSON frames acknowledged by sequence number; the
// connection's read loop is the single goroutine that dispatches
// renderer-originated pop events, so events reach the bridge serialized and
// in arrival order.
//
// One renderer attaches at a time; a new attachment supersedes the previous
// connection.
type Adapter struct {
	logger  *logging.Logger
	metrics *monitoring.Metrics
	breaker *resilience.Breaker

	writeMu sync.Mutex // guards conn writes

	mu        sync.Mutex
	conn      *websocket.Conn
	seq       uint64
	pending   map[uint64]chan string
	screens   map[string]navigation.Screen // descriptor ID -> pushed screen
	pageSubs  map[string]map[uint64]func(navigation.Screen)
	modalSubs map[uint64]func(navigation.Screen)
	nextSub   uint64

	// events decouples event delivery from the read loop: acks must keep
	// flowing while the bridge processes an event, or a command issued from
	// inside a model mutation could never complete.
	events chan Frame
}

// New creates a detached adapter. Commands fail with ErrRendererDetached
// until a renderer attaches.
func New(logger *logging.Logger, metrics *monitoring.Metrics) *Adapter {
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &Adapter{
		logger:    logger,
		metrics:   metrics,
		pending:   make(map[uint64]chan string),
		screens:   make(map[string]navigation.Screen),
		pageSubs:  make(map[string]map[uint64]func(navigation.Screen)),
		modalSubs: make(map[uint64]func(navigation.Screen)),
		events:    make(chan Frame, 64),
	}
	a.breaker = resilience.NewBreaker("renderer", resilience.Config{
		Threshold: 5,
		Cooldown:  15 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("renderer breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	go a.eventLoop()
	return a
}

// eventLoop is the single goroutine that hands renderer events to the
// bridge, preserving arrival order.
func (a *Adapter) eventLoop() {
	for f := range a.events {
		a.dispatchEvent(f)
	}
}

// Attach upgrades the request and runs the renderer's read loop until the
// connection drops.
func (a *Adapter) Attach(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Warn("renderer upgrade failed", zap.Error(err))
		return
	}

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.failPendingLocked()
	}
	a.conn = conn
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.WSConnections.Inc()
	}
	a.logger.Info("renderer attached", zap.String("remote", conn.RemoteAddr().String()))

	a.readLoop(conn)

	a.mu.Lock()
	if a.conn == conn {
		a.conn = nil
		a.failPendingLocked()
	}
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.WSConnections.Dec()
	}
	a.logger.Info("renderer detached", zap.String("remote", conn.RemoteAddr().String()))
}

// Attached reports whether a renderer connection is live.
func (a *Adapter) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil
}

// failPendingLocked fails every in-flight command as detached by closing
// its channel: a close is distinguishable from a renderer answer, so the
// failure reaches the breaker. Callers hold a.mu.
func (a *Adapter) failPendingLocked() {
	for seq, ch := range a.pending {
		close(ch)
		delete(a.pending, seq)
	}
}

func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Type {
		case FrameAck:
			a.mu.Lock()
			if ch, ok := a.pending[f.Seq]; ok {
				delete(a.pending, f.Seq)
				ch <- f.Error
			}
			a.mu.Unlock()
		case FrameEvent:
			a.events <- f
		default:
			a.logger.Warn("unknown renderer frame", zap.String("type", f.Type))
		}
	}
}

func (a *Adapter) dispatchEvent(f Frame) {
	switch f.Event {
	case EventPagePopped:
		a.mu.Lock()
		screen, known := a.screens[f.ScreenID]
		if known {
			delete(a.screens, f.ScreenID)
		}
		subs := make([]func(navigation.Screen), 0, len(a.pageSubs[f.ContainerID]))
		for _, fn := range a.pageSubs[f.ContainerID] {
			subs = append(subs, fn)
		}
		a.mu.Unlock()

		if !known {
			a.logger.Warn("page pop for unknown screen", zap.String("screen_id", f.ScreenID))
			return
		}
		for _, fn := range subs {
			fn(screen)
		}
	case EventModalPopped:
		a.mu.Lock()
		screen := a.screens[f.ScreenID]
		delete(a.screens, f.ScreenID)
		subs := make([]func(navigation.Screen), 0, len(a.modalSubs))
		for _, fn := range a.modalSubs {
			subs = append(subs, fn)
		}
		a.mu.Unlock()

		for _, fn := range subs {
			fn(screen)
		}
	default:
		a.logger.Warn("unknown renderer event", zap.String("event", f.Event))
	}
}

// RejectionError is an application-level refusal from the renderer: the
// command reached it and was answered, but could not be applied.
type RejectionError struct {
	Op     string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("ws: %s rejected: %s", e.Op, e.Reason)
}

// command sends cmd through the breaker and blocks until the renderer acks
// it or ctx ends. Rejections are answered commands and do not feed the
// breaker; write failures, detaches and abandoned waits do.
func (a *Adapter) command(ctx context.Context, cmd Command) error {
	var opErr error
	brkErr := a.breaker.Do(func() error {
		opErr = a.send(ctx, cmd)
		var rej *RejectionError
		if errors.As(opErr, &rej) {
			return nil
		}
		return opErr
	})
	if errors.Is(brkErr, resilience.ErrOpen) {
		return fmt.Errorf("ws: %s: renderer unhealthy: %w", cmd.Op, brkErr)
	}
	return opErr
}

// send writes cmd and waits for its ack.
func (a *Adapter) send(ctx context.Context, cmd Command) error {
	a.mu.Lock()
	conn := a.conn
	if conn == nil {
		a.mu.Unlock()
		return ErrRendererDetached
	}
	a.seq++
	cmd.Seq = a.seq
	ch := make(chan string, 1)
	a.pending[cmd.Seq] = ch
	a.mu.Unlock()

	a.writeMu.Lock()
	err := conn.WriteJSON(cmd)
	a.writeMu.Unlock()
	if err != nil {
		a.mu.Lock()
		delete(a.pending, cmd.Seq)
		a.mu.Unlock()
		return fmt.Errorf("ws: write %s: %w", cmd.Op, err)
	}

	select {
	case msg, answered := <-ch:
		if !answered {
			return fmt.Errorf("ws: %s: %w", cmd.Op, ErrRendererDetached)
		}
		if msg != "" {
			return &RejectionError{Op: cmd.Op, Reason: msg}
		}
		return nil
	case <-ctx.Done():
		a.mu.Lock()
		delete(a.pending, cmd.Seq)
		a.mu.Unlock()
		return ctx.Err()
	}
}

func (a *Adapter) payload(s navigation.Screen) *ScreenPayload {
	d := s.Descriptor()
	p := &ScreenPayload{
		ID:       d.ID(),
		Kind:     d.Kind(),
		Title:    d.Title(),
		Contract: d.Contract(),
	}
	if r, ok := s.(Renderable); ok {
		p.View = r.Render()
	}
	return p
}

func (a *Adapter) remember(s navigation.Screen) {
	a.mu.Lock()
	a.screens[s.Descriptor().ID()] = s
	a.mu.Unlock()
}

// PushPage implements navigation.Host.
func (a *Adapter) PushPage(ctx context.Context, s navigation.Screen, animate bool) error {
	a.remember(s)
	err := a.command(ctx, Command{Op: OpPushPage, Animate: animate, Screen: a.payload(s)})
	if a.metrics != nil {
		a.metrics.RecordHostCommand(OpPushPage, err)
	}
	return err
}

// PopPage implements navigation.Host.
func (a *Adapter) PopPage(ctx context.Context, animate bool) error {
	err := a.command(ctx, Command{Op: OpPopPage, Animate: animate})
	if a.metrics != nil {
		a.metrics.RecordHostCommand(OpPopPage, err)
	}
	return err
}

// InsertPage implements navigation.Host. The renderer treats it as
// immediate: no animation, no events.
func (a *Adapter) InsertPage(index int, s navigation.Screen) error {
	a.remember(s)
	err := a.command(context.Background(), Command{Op: OpInsertPage, Index: index, Screen: a.payload(s)})
	if a.metrics != nil {
		a.metrics.RecordHostCommand(OpInsertPage, err)
	}
	return err
}

// RemovePage implements navigation.Host.
func (a *Adapter) RemovePage(index int) error {
	err := a.command(context.Background(), Command{Op: OpRemovePage, Index: index})
	if a.metrics != nil {
		a.metrics.RecordHostCommand(OpRemovePage, err)
	}
	return err
}

// PushModal implements navigation.Host.
func (a *Adapter) PushModal(ctx context.Context, s navigation.Screen, containerID string) error {
	a.remember(s)
	err := a.command(ctx, Command{Op: OpPushModal, ContainerID: containerID, Screen: a.payload(s)})
	if a.metrics != nil {
		a.metrics.RecordHostCommand(OpPushModal, err)
	}
	return err
}

// PopModal implements navigation.Host.
func (a *Adapter) PopModal(ctx context.Context) error {
	err := a.command(ctx, Command{Op: OpPopModal})
	if a.metrics != nil {
		a.metrics.RecordHostCommand(OpPopModal, err)
	}
	return err
}

// SubscribePagePops implements navigation.Host.
func (a *Adapter) SubscribePagePops(containerID string, fn func(navigation.Screen)) (cancel func()) {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	if a.pageSubs[containerID] == nil {
		a.pageSubs[containerID] = make(map[uint64]func(navigation.Screen))
	}
	a.pageSubs[containerID][id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.pageSubs[containerID], id)
		a.mu.Unlock()
	}
}

// SubscribeModalPops implements navigation.Host.
func (a *Adapter) SubscribeModalPops(fn func(navigation.Screen)) (cancel func()) {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.modalSubs[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.modalSubs, id)
		a.mu.Unlock()
	}
}
