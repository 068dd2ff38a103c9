package interactive

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/noahgrant/resourcerer-go/pkg/journal"
)

// JournalTap echoes journal events to a writer as single-line summaries.
// It starts disabled; the console's journal command toggles it. The tap
// is safe for concurrent use: the cache and records log from their own
// goroutines while the console retargets the writer.
type JournalTap struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool

	// refresh is called after each line to redraw the readline prompt.
	refresh func()
}

// NewJournalTap creates a tap writing to w, initially disabled.
func NewJournalTap(w io.Writer) *JournalTap {
	return &JournalTap{w: w}
}

// SetOutput retargets the tap, typically to the readline stdout once
// the console exists.
func (t *JournalTap) SetOutput(w io.Writer, refresh func()) {
	t.mu.Lock()
	t.w = w
	t.refresh = refresh
	t.mu.Unlock()
}

// SetEnabled turns the echo on or off.
func (t *JournalTap) SetEnabled(on bool) {
	t.mu.Lock()
	t.enabled = on
	t.mu.Unlock()
}

// Enabled reports whether the echo is on.
func (t *JournalTap) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Log implements journal.Logger.
func (t *JournalTap) Log(event journal.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled || t.w == nil {
		return
	}

	fmt.Fprintf(t.w, "\n%s\n", formatJournalLine(event))
	if t.refresh != nil {
		t.refresh()
	}
}

// formatJournalLine renders one event as a compact single line.
func formatJournalLine(event journal.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] rec:%s %s",
		event.Timestamp.Format("15:04:05.000"),
		shortID(event.RecordID),
		event.Op.String())

	switch {
	case event.Update != nil:
		u := event.Update
		if u.Origin != "" {
			fmt.Fprintf(&b, " origin=%s", u.Origin)
		}
		verb := "set"
		if u.Unset {
			verb = "unset"
		}
		fmt.Fprintf(&b, " %s=%s subs=%d", verb, strings.Join(u.Keys, ","), u.Subscribers)

	case event.Subscription != nil:
		s := event.Subscription
		fmt.Fprintf(&b, " subscriber=%s subs=%d", s.Subscriber, s.Subscribers)

	case event.Lifecycle != nil:
		lc := event.Lifecycle
		if lc.Class != "" || lc.ID != "" {
			fmt.Fprintf(&b, " %s/%s", lc.Class, lc.ID)
		}
		if lc.GracePeriod > 0 {
			fmt.Fprintf(&b, " grace=%s", lc.GracePeriod)
		}
		if lc.Reason != "" {
			fmt.Fprintf(&b, " (%s)", lc.Reason)
		}

	case event.Error != nil:
		fmt.Fprintf(&b, " %s", event.Error.Message)
	}

	return b.String()
}

// shortID returns the first 8 characters of a record instance ID.
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// Compile-time interface satisfaction check.
var _ journal.Logger = (*JournalTap)(nil)
