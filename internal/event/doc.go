// Package event provides the broadcaster that turns native event
// occurrences into values goroutines can wait for.
//
// A Handler fans one occurrence out to every listener registered at the
// moment the occurrence is broadcast, exactly once each. Each event kind
// has two representations:
//
//   - the unique view U, which may carry an exclusive capability (for
//     example the writer that decides a window's new inner size after a
//     scale-factor change) and is never duplicated;
//   - the clonable view C, produced from U by the handler's downgrade
//     function, which every other listener receives a fresh copy of.
//
// # Delivery Order
//
// RunWith delivers an occurrence in a fixed order:
//
//  1. the interceptor, if one is installed, receives the unique view;
//  2. hooks, one-shot waiters and streams receive independently
//     downgraded clones, in registration order.
//
// Hooks run synchronously inside RunWith. Waiters and streams only have
// the clone placed in their mailbox, so RunWith never blocks on a slow
// consumer. Listeners registered while a broadcast is in progress are not
// part of that broadcast's snapshot and see only later occurrences.
//
// # Listener Kinds
//
//	Intercept  exclusive, at most one, sees *U and may mutate it
//	Hook       synchronous callback, every occurrence
//	Wait       blocks the caller until the next occurrence, then detaches
//	Subscribe  lossless FIFO stream of every occurrence until Close
//
// Panics raised by the interceptor or a hook are recovered, reported as a
// PanicError from RunWith, and never prevent delivery to the remaining
// listeners.
package event
