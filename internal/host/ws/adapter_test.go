package ws

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenflow/screenflow/internal/infrastructure/resilience"
	"github.com/screenflow/screenflow/internal/navigation"
)

type screen struct {
	d navigation.Descriptor
}

func (s *screen) Descriptor() navigation.Descriptor { return s.d }

func newScreen(kind string) *screen {
	return &screen{d: navigation.NewPage(kind, kind, "")}
}

// renderer is a fake remote renderer: it reads command frames off the
// socket and lets the test decide how to answer them.
type renderer struct {
	conn *websocket.Conn
	cmds chan Command
}

func attachRenderer(t *testing.T, a *Adapter) *renderer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/stream", a.Attach)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	r := &renderer{conn: conn, cmds: make(chan Command, 16)}
	go func() {
		for {
			var cmd Command
			if err := conn.ReadJSON(&cmd); err != nil {
				close(r.cmds)
				return
			}
			r.cmds <- cmd
		}
	}()

	require.Eventually(t, a.Attached, time.Second, 5*time.Millisecond)
	return r
}

func (r *renderer) next(t *testing.T) Command {
	t.Helper()
	select {
	case cmd := <-r.cmds:
		return cmd
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for command")
		return Command{}
	}
}

func (r *renderer) ack(t *testing.T, seq uint64, errMsg string) {
	t.Helper()
	require.NoError(t, r.conn.WriteJSON(Frame{Type: FrameAck, Seq: seq, Error: errMsg}))
}

func (r *renderer) event(t *testing.T, f Frame) {
	t.Helper()
	f.Type = FrameEvent
	require.NoError(t, r.conn.WriteJSON(f))
}

func TestDetachedCommandFails(t *testing.T) {
	a := New(nil, nil)
	err := a.PushPage(context.Background(), newScreen("home"), true)
	assert.ErrorIs(t, err, ErrRendererDetached)
}

func TestCommandAck(t *testing.T) {
	a := New(nil, nil)
	r := attachRenderer(t, a)

	done := make(chan error, 1)
	go func() {
		done <- a.PushPage(context.Background(), newScreen("home"), true)
	}()

	cmd := r.next(t)
	assert.Equal(t, OpPushPage, cmd.Op)
	assert.True(t, cmd.Animate)
	require.NotNil(t, cmd.Screen)
	assert.Equal(t, "home", cmd.Screen.Kind)

	r.ack(t, cmd.Seq, "")
	require.NoError(t, <-done)
}

func TestCommandRejected(t *testing.T) {
	a := New(nil, nil)
	r := attachRenderer(t, a)

	done := make(chan error, 1)
	go func() {
		done <- a.PopPage(context.Background(), true)
	}()

	cmd := r.next(t)
	assert.Equal(t, OpPopPage, cmd.Op)
	r.ack(t, cmd.Seq, "nothing to pop")

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to pop")
}

func TestCommandContextTimeout(t *testing.T) {
	a := New(nil, nil)
	r := attachRenderer(t, a)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := a.PushModal(ctx, newScreen("sheet"), "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The command still went out, only the wait was abandoned.
	cmd := r.next(t)
	assert.Equal(t, OpPushModal, cmd.Op)
}

func TestPagePopEventDispatch(t *testing.T) {
	a := New(nil, nil)
	r := attachRenderer(t, a)

	popped := make(chan navigation.Screen, 1)
	cancel := a.SubscribePagePops(navigation.RootContainerID, func(s navigation.Screen) {
		popped <- s
	})
	defer cancel()

	s := newScreen("detail")
	done := make(chan error, 1)
	go func() { done <- a.PushPage(context.Background(), s, true) }()
	cmd := r.next(t)
	r.ack(t, cmd.Seq, "")
	require.NoError(t, <-done)

	r.event(t, Frame{
		Event:       EventPagePopped,
		ContainerID: navigation.RootContainerID,
		ScreenID:    s.Descriptor().ID(),
	})

	select {
	case got := <-popped:
		assert.Same(t, s, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pop event")
	}
}

func TestUnknownScreenEventIgnored(t *testing.T) {
	a := New(nil, nil)
	r := attachRenderer(t, a)

	popped := make(chan navigation.Screen, 1)
	cancel := a.SubscribePagePops(navigation.RootContainerID, func(s navigation.Screen) {
		popped <- s
	})
	defer cancel()

	r.event(t, Frame{
		Event:       EventPagePopped,
		ContainerID: navigation.RootContainerID,
		ScreenID:    "never-pushed",
	})

	select {
	case <-popped:
		t.Fatal("event for an unknown screen must not be dispatched")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDetachFailsPending(t *testing.T) {
	a := New(nil, nil)
	r := attachRenderer(t, a)

	done := make(chan error, 1)
	go func() { done <- a.PopPage(context.Background(), true) }()
	r.next(t) // command is in flight, never acked

	r.conn.Close()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrRendererDetached)
		var rej *RejectionError
		assert.False(t, errors.As(err, &rej), "a detach is a failure, not a renderer answer")
	case <-time.After(time.Second):
		t.Fatal("pending command not failed on detach")
	}
}

func TestDetachedCommandsOpenBreaker(t *testing.T) {
	a := New(nil, nil)

	for i := 0; i < 5; i++ {
		require.ErrorIs(t, a.PopPage(context.Background(), true), ErrRendererDetached)
	}
	err := a.PopPage(context.Background(), true)
	assert.ErrorIs(t, err, resilience.ErrOpen)
}
