package navigation

import "sync"

// StackModel holds the ordered sequence of descriptors for one logical
// stack, bottom to top. It is a current-value observable: consumers read the
// latest sequence synchronously with Current and subscribe to future
// changes. Every change emits the full new sequence, never a delta.
//
// Mutation goes exclusively through the coordinator's operation methods and
// the bridge's reconciliation path; the mutating primitives replace the
// whole sequence atomically so observers never see a partial state.
type StackModel struct {
	mu      sync.RWMutex
	name    string
	items   []Descriptor
	subs    map[uint64]func([]Descriptor)
	nextSub uint64
}

// NewStackModel creates an empty stack. The name labels log entries and
// metrics, not identity.
func NewStackModel(name string) *StackModel {
	return &StackModel{
		name: name,
		subs: make(map[uint64]func([]Descriptor)),
	}
}

// Name returns the stack's label.
func (s *StackModel) Name() string { return s.name }

// Current returns a snapshot of the sequence, bottom to top.
func (s *StackModel) Current() []Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Descriptor, len(s.items))
	copy(out, s.items)
	return out
}

// Size returns the number of entries.
func (s *StackModel) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Top returns the top entry, or nil when the stack is empty.
func (s *StackModel) Top() Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) == 0 {
		return nil
	}
	return s.items[len(s.items)-1]
}

// Subscribe registers fn to receive the full sequence after every change.
// The returned cancel function removes the subscription; subscriptions are
// released deterministically, paired with the lifetime of whatever created
// them.
func (s *StackModel) Subscribe(fn func([]Descriptor)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// append adds d on top and emits.
func (s *StackModel) append(d Descriptor) {
	s.mu.Lock()
	s.items = append(s.items, d)
	s.emitLocked()
}

// insertAt places d at index, shifting existing entries up, and emits.
func (s *StackModel) insertAt(index int, d Descriptor) {
	s.mu.Lock()
	items := make([]Descriptor, 0, len(s.items)+1)
	items = append(items, s.items[:index]...)
	items = append(items, d)
	items = append(items, s.items[index:]...)
	s.items = items
	s.emitLocked()
}

// removeAt drops the entry at index and emits.
func (s *StackModel) removeAt(index int) {
	s.mu.Lock()
	s.items = append(s.items[:index:index], s.items[index+1:]...)
	s.emitLocked()
}

// removeTop drops the top entry and emits. Returns the removed descriptor,
// or nil when the stack was empty.
func (s *StackModel) removeTop() Descriptor {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return nil
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	s.emitLocked()
	return top
}

// replaceAll swaps the whole sequence and emits.
func (s *StackModel) replaceAll(items []Descriptor) {
	s.mu.Lock()
	s.items = make([]Descriptor, len(items))
	copy(s.items, items)
	s.emitLocked()
}

// emitLocked snapshots the sequence and subscribers, releases the lock and
// notifies. Callers must hold s.mu; it is released on return.
func (s *StackModel) emitLocked() {
	snapshot := make([]Descriptor, len(s.items))
	copy(snapshot, s.items)
	subs := make([]func([]Descriptor), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
