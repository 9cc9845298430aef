package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screenflow/screenflow/internal/infrastructure/logging"
	"github.com/screenflow/screenflow/internal/infrastructure/monitoring"
	"github.com/screenflow/screenflow/internal/navigation"
)

// PageSnapshot captures one stack entry.
type PageSnapshot struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Contract string `json:"contract,omitempty"`
}

// ModalSnapshot captures one modal stack entry, with its nested pages when
// the modal is a container.
type ModalSnapshot struct {
	Kind      string         `json:"kind"`
	Contract  string         `json:"contract,omitempty"`
	Container bool           `json:"container"`
	Pages     []PageSnapshot `json:"pages,omitempty"`
}

// Session is a saved navigation state.
type Session struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	SavedAt time.Time       `json:"saved_at"`
	Default []PageSnapshot  `json:"default"`
	Modals  []ModalSnapshot `json:"modals"`
}

// Manager persists navigation sessions as JSON files and restores them by
// replaying pushes through the coordinator, so host and model stay
// synchronized during restore.
type Manager struct {
	coord   *navigation.Coordinator
	dir     string
	logger  *logging.Logger
	metrics *monitoring.Metrics
	mu      sync.Mutex // serializes save/restore against each other
}

// NewManager creates a session manager storing snapshots under dir.
func NewManager(coord *navigation.Coordinator, dir string, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{coord: coord, dir: dir, logger: logger}
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Save captures the current navigation state under the given name.
func (m *Manager) Save(name string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		ID:      uuid.New().String(),
		Name:    name,
		SavedAt: time.Now(),
		Default: snapshotPages(m.coord.DefaultStack().Current()),
	}
	for _, d := range m.coord.ModalStack().Current() {
		ms := ModalSnapshot{Kind: d.Kind(), Contract: d.Contract()}
		if cont, ok := d.(*navigation.Container); ok {
			ms.Container = true
			ms.Pages = snapshotPages(cont.Pages().Current())
		}
		s.Modals = append(s.Modals, ms)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("session: encode: %w", err)
	}
	if err := os.WriteFile(m.path(s.ID), data, 0o644); err != nil {
		return nil, fmt.Errorf("session: write: %w", err)
	}

	m.logger.Info("session saved",
		zap.String("id", s.ID),
		zap.String("name", name),
		zap.Int("pages", len(s.Default)),
		zap.Int("modals", len(s.Modals)),
	)
	if m.metrics != nil {
		m.metrics.SessionsSaved.Inc()
	}
	return s, nil
}

func snapshotPages(items []navigation.Descriptor) []PageSnapshot {
	pages := make([]PageSnapshot, 0, len(items))
	for _, d := range items {
		pages = append(pages, PageSnapshot{Kind: d.Kind(), Title: d.Title(), Contract: d.Contract()})
	}
	return pages
}

// Get loads a saved session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	data, err := os.ReadFile(m.path(id))
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", id, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return &s, nil
}

// List returns every saved session, newest first.
func (m *Manager) List() ([]*Session, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}

	var sessions []*Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		s, err := m.Get(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			m.logger.Warn("skipping unreadable session", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].SavedAt.After(sessions[j].SavedAt)
	})
	return sessions, nil
}

// Delete removes a saved session.
func (m *Manager) Delete(id string) error {
	if err := os.Remove(m.path(id)); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

// Restore replays a saved session: open modals are dismissed, the default
// stack is reset to the snapshot's root and rebuilt, then modals are pushed
// back. Every step goes through the coordinator so the host mirrors each
// mutation.
func (m *Manager) Restore(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if len(s.Default) == 0 {
		return fmt.Errorf("session %s has no default stack", id)
	}

	// Modal model mutation happens on the reconciliation path, which may
	// lag the pop completion, so pop a fixed count rather than re-reading
	// the size, then wait for the model to catch up before replaying.
	if open := m.coord.ModalStack().Size(); open > 0 {
		for i := 0; i < open; i++ {
			if err := m.coord.PopModal(ctx); err != nil {
				return fmt.Errorf("session: unwind modal: %w", err)
			}
		}
		if err := awaitEmpty(ctx, m.coord.ModalStack()); err != nil {
			return fmt.Errorf("session: unwind modal: %w", err)
		}
	}

	for i, p := range s.Default {
		d := navigation.NewPage(p.Kind, p.Title, p.Contract)
		if err := m.coord.PushPage(ctx, d, p.Contract, i == 0, false); err != nil {
			return fmt.Errorf("session: restore page %q: %w", p.Title, err)
		}
	}

	for _, ms := range s.Modals {
		if err := m.restoreModal(ctx, ms); err != nil {
			return err
		}
	}

	m.logger.Info("session restored", zap.String("id", id), zap.String("name", s.Name))
	if m.metrics != nil {
		m.metrics.SessionsRestored.Inc()
	}
	return nil
}

// restoreModal pushes one modal back. Containers are seeded with their
// first page only; the rest are replayed as pushes onto the container's
// stack, which is current once the modal lands.
func (m *Manager) restoreModal(ctx context.Context, ms ModalSnapshot) error {
	if !ms.Container {
		d := navigation.NewPage(ms.Kind, "", ms.Contract)
		if err := m.coord.PushModal(ctx, d, ms.Contract); err != nil {
			return fmt.Errorf("session: restore modal %q: %w", ms.Kind, err)
		}
		return nil
	}

	if len(ms.Pages) == 0 {
		return fmt.Errorf("%w: saved container %q has no pages", navigation.ErrInvalidState, ms.Kind)
	}
	first := ms.Pages[0]
	cont := navigation.NewContainer(ms.Kind, ms.Contract,
		navigation.NewPage(first.Kind, first.Title, first.Contract))
	if err := m.coord.PushModal(ctx, cont, ms.Contract); err != nil {
		return fmt.Errorf("session: restore container %q: %w", ms.Kind, err)
	}
	for _, p := range ms.Pages[1:] {
		d := navigation.NewPage(p.Kind, p.Title, p.Contract)
		if err := m.coord.PushPage(ctx, d, p.Contract, false, false); err != nil {
			return fmt.Errorf("session: restore container page %q: %w", p.Title, err)
		}
	}
	return nil
}

// awaitEmpty blocks until stack reports no entries or ctx ends.
func awaitEmpty(ctx context.Context, stack *navigation.StackModel) error {
	drained := make(chan struct{}, 1)
	cancel := stack.Subscribe(func(items []navigation.Descriptor) {
		if len(items) == 0 {
			select {
			case drained <- struct{}{}:
			default:
			}
		}
	})
	defer cancel()

	if stack.Size() == 0 {
		return nil
	}
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+".json")
}
