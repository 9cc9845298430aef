package navigation

// Selector derives which stack page operations target from the modal
// stack's top entry. It holds no state of its own: the selection is
// recomputed from the modal sequence on demand, so a modal change is
// reflected by the very next call and cannot leave a stale ambient pointer
// behind.
//
// Each coordinator operation reads the selection exactly once at invocation
// time. An operation already in flight against a previous selection is
// allowed to complete against it.
type Selector struct {
	defaultStack *StackModel
	modal        *StackModel
}

// NewSelector creates a selector over the default and modal stacks.
func NewSelector(defaultStack, modal *StackModel) *Selector {
	return &Selector{defaultStack: defaultStack, modal: modal}
}

// Current returns the stack operations should target:
//   - no modal shown: the default stack
//   - a container modal on top: that container's nested page stack
//   - a plain modal on top: nil, the null stack sentinel; page navigation
//     is not possible and operations must fail
//
// nil is distinct from an empty stack: an empty default stack is still a
// valid target for the first push.
func (s *Selector) Current() *StackModel {
	items := s.modal.Current()
	if len(items) == 0 {
		return s.defaultStack
	}
	if c, ok := items[len(items)-1].(*Container); ok {
		return c.Pages()
	}
	return nil
}
