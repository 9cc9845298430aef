// Package navigation keeps an authoritative, observable model of which
// screens are shown, in what order, synchronized with an imperative host
// that can also change state on its own (hardware back, swipe gestures).
//
// Components:
//   - StackModel: ordered, observable descriptor sequence for one stack
//   - Selector: derives the current stack from the modal stack's top entry
//   - Coordinator: push/pop/insert/remove/reset operations against the host
//   - Bridge: reconciles host-originated pops back into the model
//   - Resolver: maps descriptor kind and contract to a host screen
//
// Synchronization contract:
//   - Operations serialize on the coordinator and mutate the model only
//     after the host confirms completion, so per-stack mutations apply in
//     issue order.
//   - Host pop notifications are reconciled by descriptor identity; a
//     notification that does not match the selected stack's top is ignored,
//     which makes the pop path idempotent whichever side observes it first.
//   - The current-stack selection is read once per operation at invocation
//     time; an operation in flight when a modal change swaps the selection
//     completes against the stack it started with.
//
// Stack subscribers are invoked synchronously with the full new sequence and
// must not call coordinator operations from the callback.
package navigation
