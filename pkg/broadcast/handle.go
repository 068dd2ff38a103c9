package broadcast

import (
	"strconv"
	"sync/atomic"
)

// Handle identifies one subscriber. Handles are opaque and comparable;
// equality is the only operation callers need. The zero Handle is reserved
// as the system origin: it is a valid originator for Trigger that matches
// no subscriber, and must never be used to register a subscription.
type Handle struct {
	id uint64
}

// NewHandle returns a fresh process-unique Handle. Handles are never
// recycled for the lifetime of the process.
func NewHandle() Handle {
	return Handle{id: handleGenerator.Add(1)}
}

// IsZero reports whether h is the zero (system origin) handle.
func (h Handle) IsZero() bool {
	return h.id == 0
}

// String returns a short identifier for journals and tooling.
func (h Handle) String() string {
	if h.id == 0 {
		return "system"
	}
	return "sub-" + strconv.FormatUint(h.id, 10)
}

// handleGenerator mints unique subscriber handles.
var handleGenerator atomic.Uint64
