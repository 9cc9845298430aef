// Package ws is the navigation host backed by a remote renderer attached
// over a WebSocket.
//
// Wire protocol, service → renderer (commands, acked by seq):
//   - push_page, pop_page, insert_page, remove_page, push_modal, pop_modal
//
// Renderer → service frames:
//   - ack: {type:"ack", seq, error?}
//   - event: {type:"event", event:"page_popped"|"modal_popped",
//     container_id, screen_id}
//
// Events are dispatched from a single goroutine in arrival order, which is
// the ordering contract the reconciliation bridge relies on.
package ws
