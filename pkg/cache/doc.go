// Package cache keys canonical records by (class, id) and manages
// their lifetime.
//
// The cache guarantees at most one live record per key: every part of
// the process that asks for "user/42" gets the same record, which is
// what makes updates from one copy reach all the others. Records
// themselves never learn their key; the cache wires each record's
// OnEmpty hook to an eviction schedule and stamps it with an opaque
// instance UUID for journal correlation.
//
// # Eviction
//
// When a record's last subscriber detaches, the cache starts a
// grace-period timer (default two minutes). If the record is requested
// again before the timer fires, the eviction is canceled and the
// record survives with its attributes intact; otherwise it is dropped
// and the OnEvict callback runs. Explicit Remove skips the grace
// period.
//
// Timers run on an injected clockwork.Clock, so tests advance time
// synthetically instead of sleeping.
package cache
