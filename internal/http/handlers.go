package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/screenflow/screenflow/internal/navigation"
	"github.com/screenflow/screenflow/internal/routes"
	"github.com/screenflow/screenflow/internal/session"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	coord    *navigation.Coordinator
	table    *routes.Table
	sessions *session.Manager
}

// NewHandlers creates a new handler set.
func NewHandlers(coord *navigation.Coordinator, table *routes.Table, sessions *session.Manager) *Handlers {
	return &Handlers{coord: coord, table: table, sessions: sessions}
}

// Root handles the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "screenflow",
		"version": "0.3.0",
	})
}

// Health handles the health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"default_depth": h.coord.DefaultStack().Size(),
		"modal_depth":   h.coord.ModalStack().Size(),
	})
}

// Stacks reports the full navigation state.
func (h *Handlers) Stacks(c *gin.Context) {
	current := "none"
	if cur := h.coord.CurrentStack(); cur != nil {
		current = cur.Name()
	}
	c.JSON(http.StatusOK, gin.H{
		"default": describe(h.coord.DefaultStack().Current()),
		"modal":   describe(h.coord.ModalStack().Current()),
		"current": current,
	})
}

func describe(items []navigation.Descriptor) []gin.H {
	out := make([]gin.H, 0, len(items))
	for _, d := range items {
		entry := gin.H{
			"id":       d.ID(),
			"kind":     d.Kind(),
			"title":    d.Title(),
			"contract": d.Contract(),
		}
		if cont, ok := d.(*navigation.Container); ok {
			entry["pages"] = describe(cont.Pages().Current())
		}
		out = append(out, entry)
	}
	return out
}

type pushPageRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Reset   bool   `json:"reset"`
	Animate bool   `json:"animate"`
}

// PushPage pushes a page of the requested kind onto the current stack.
func (h *Handlers) PushPage(c *gin.Context) {
	var req pushPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.table.NewDescriptor(req.Kind)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.coord.PushPage(c.Request.Context(), d, d.Contract(), req.Reset, req.Animate); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pushed": d.ID()})
}

type popRequest struct {
	Count   int  `json:"count"`
	Animate bool `json:"animate"`
}

// PopPages pops one or more pages from the current stack.
func (h *Handlers) PopPages(c *gin.Context) {
	req := popRequest{Count: 1, Animate: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	var err error
	if req.Count <= 1 {
		err = h.coord.PopPage(c.Request.Context(), req.Animate)
	} else {
		err = h.coord.PopPages(c.Request.Context(), req.Count, req.Animate)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"popped": req.Count})
}

type popToRequest struct {
	Index int `json:"index"`
}

// PopToPage pops everything above the given index.
func (h *Handlers) PopToPage(c *gin.Context) {
	var req popToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.coord.PopToPage(c.Request.Context(), req.Index); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": req.Index})
}

// PopToRoot pops everything above the root page.
func (h *Handlers) PopToRoot(c *gin.Context) {
	if err := h.coord.PopToRoot(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"depth": h.coord.DefaultStack().Size()})
}

type insertRequest struct {
	Kind  string `json:"kind" binding:"required"`
	Index int    `json:"index"`
}

// InsertPage inserts a page beneath the top of the current stack.
func (h *Handlers) InsertPage(c *gin.Context) {
	var req insertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.table.NewDescriptor(req.Kind)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.coord.InsertPage(req.Index, d, d.Contract()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": d.ID()})
}

type removeRequest struct {
	Index int `json:"index"`
}

// RemovePage removes the page at the given index.
func (h *Handlers) RemovePage(c *gin.Context) {
	var req removeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.coord.RemovePage(req.Index); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": req.Index})
}

type replaceTopRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Animate bool   `json:"animate"`
}

// ReplaceTop atomically replaces the top page of the current stack.
func (h *Handlers) ReplaceTop(c *gin.Context) {
	var req replaceTopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.table.NewDescriptor(req.Kind)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.coord.PushAndReplaceTop(c.Request.Context(), d, req.Animate); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pushed": d.ID()})
}

type pushModalRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// PushModal presents a modal of the requested kind.
func (h *Handlers) PushModal(c *gin.Context) {
	var req pushModalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.table.NewDescriptor(req.Kind)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.coord.PushModal(c.Request.Context(), d, d.Contract()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pushed": d.ID()})
}

// PopModal dismisses the top modal.
func (h *Handlers) PopModal(c *gin.Context) {
	if err := h.coord.PopModal(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modal_depth": h.coord.ModalStack().Size()})
}

type saveSessionRequest struct {
	Name string `json:"name" binding:"required"`
}

// SaveSession snapshots the current navigation state.
func (h *Handlers) SaveSession(c *gin.Context) {
	var req saveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.sessions.Save(req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// ListSessions lists saved sessions.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// RestoreSession replays a saved session.
func (h *Handlers) RestoreSession(c *gin.Context) {
	if err := h.sessions.Restore(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": c.Param("id")})
}

// DeleteSession removes a saved session.
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// fail maps engine errors to HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, navigation.ErrNullArgument):
		status = http.StatusBadRequest
	case errors.Is(err, navigation.ErrOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, navigation.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, navigation.ErrResolutionFailed):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
