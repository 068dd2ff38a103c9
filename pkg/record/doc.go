// Package record implements the canonical record, the single source of
// truth for one logical entity's attributes.
//
// A Record holds an attribute-name to value mapping and a set of
// subscribers built on the broadcast package. Updates apply a batch of
// assignments (or removals), detect whether anything actually changed
// using structural equality, and fan a full snapshot out to every
// subscriber except the originator. Structurally-equal updates are
// silent, so synchronization loops between copies converge instead of
// echoing forever.
//
// # Update Semantics
//
// Set applies all keys of a batch atomically under the record lock and
// broadcasts once per batch, never per key. Change detection is deep:
// replacing a slice or map value with an equal-contents copy does not
// count as a change. Unset removes keys; removing at least one present
// key broadcasts once.
//
// # Identity
//
// A record does not know its own cache identity. The originator of an
// update is a broadcast.Handle; the zero handle means "no originator"
// and every subscriber receives the snapshot. Cache correlation for
// diagnostics uses SetJournal with an opaque record instance ID.
//
// # Lifecycle
//
// Unsubscribe removes all registrations of a handle. Each time a call
// removes the last subscriber, the OnEmpty hook fires; the cache layer
// uses this to schedule grace-period eviction.
//
// # Cascades
//
// A subscriber callback may update the record it is observing, which
// broadcasts again to the other subscribers. The cascade depth is
// bounded by Config.MaxCascadeDepth; past the bound, updates still
// apply but broadcasts are dropped and an error event is journaled.
package record
