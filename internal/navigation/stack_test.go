package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackModelCurrentIsSnapshot(t *testing.T) {
	s := NewStackModel("default")
	a := NewPage("a", "A", "")
	b := NewPage("b", "B", "")
	s.append(a)
	s.append(b)

	snap := s.Current()
	require.Len(t, snap, 2)

	// Mutating after the read must not affect the snapshot.
	s.removeTop()
	assert.Len(t, snap, 2)
	assert.Same(t, b, snap[1])
	assert.Equal(t, 1, s.Size())
}

func TestStackModelTop(t *testing.T) {
	s := NewStackModel("default")
	assert.Nil(t, s.Top())

	a := NewPage("a", "A", "")
	s.append(a)
	assert.Same(t, a, s.Top())
}

func TestStackModelSubscribeEmitsFullSequence(t *testing.T) {
	s := NewStackModel("default")
	a := NewPage("a", "A", "")
	s.append(a)

	var got [][]Descriptor
	cancel := s.Subscribe(func(items []Descriptor) {
		got = append(got, items)
	})
	defer cancel()

	b := NewPage("b", "B", "")
	s.append(b)
	s.insertAt(0, NewPage("c", "C", ""))
	s.removeTop()

	require.Len(t, got, 3)
	// Every emission carries the whole sequence, never a delta.
	assert.Len(t, got[0], 2)
	assert.Len(t, got[1], 3)
	assert.Len(t, got[2], 2)
	assert.Same(t, b, got[0][1])
}

func TestStackModelSubscribeCancel(t *testing.T) {
	s := NewStackModel("default")

	calls := 0
	cancel := s.Subscribe(func([]Descriptor) { calls++ })

	s.append(NewPage("a", "A", ""))
	cancel()
	s.append(NewPage("b", "B", ""))

	assert.Equal(t, 1, calls)
}

func TestStackModelSameKindTwice(t *testing.T) {
	s := NewStackModel("default")
	first := NewPage("detail", "Detail", "")
	second := NewPage("detail", "Detail", "")
	s.append(first)
	s.append(second)

	// Identity is per instance: two descriptors of the same kind are
	// distinct entries.
	items := s.Current()
	require.Len(t, items, 2)
	assert.NotSame(t, items[0], items[1])
	assert.NotEqual(t, items[0].ID(), items[1].ID())
}

func TestStackModelReplaceAll(t *testing.T) {
	s := NewStackModel("default")
	s.append(NewPage("a", "A", ""))
	s.append(NewPage("b", "B", ""))

	only := NewPage("c", "C", "")
	s.replaceAll([]Descriptor{only})

	items := s.Current()
	require.Len(t, items, 1)
	assert.Same(t, only, items[0])
}

func TestStackModelRemoveTopEmpty(t *testing.T) {
	s := NewStackModel("default")
	assert.Nil(t, s.removeTop())
}
