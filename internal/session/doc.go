// Package session persists and restores navigation state.
//
// A session captures the default stack, the modal stack and every open
// container's nested pages. Restoration replays the snapshot through the
// coordinator rather than writing the model directly, so the host performs
// the same transitions and never diverges from the model.
package session
