// Package commands implements the resourcerer-log CLI commands.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/noahgrant/resourcerer-go/pkg/journal"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Op       *journal.Op
	RecordID string
	Class    string
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event journal.Event) {
	// Header line: timestamp [rec:id] OP
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	recID := shortenRecordID(event.RecordID)

	fmt.Fprintf(w, "%s [rec:%s] %s\n", ts, recID, event.Op.String())

	// Type-specific details
	switch {
	case event.Update != nil:
		formatUpdateDetails(w, event.Update)
	case event.Subscription != nil:
		formatSubscriptionDetails(w, event.Subscription)
	case event.Lifecycle != nil:
		formatLifecycleDetails(w, event.Lifecycle)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenRecordID returns the first 8 characters of the record instance ID.
func shortenRecordID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatUpdateDetails writes update-specific details.
func formatUpdateDetails(w io.Writer, update *journal.UpdateEvent) {
	if update.Origin != "" {
		fmt.Fprintf(w, "  Origin: %s\n", update.Origin)
	}
	if len(update.Keys) > 0 {
		verb := "Set"
		if update.Unset {
			verb = "Unset"
		}
		fmt.Fprintf(w, "  %s: %s\n", verb, strings.Join(update.Keys, ", "))
	}
	fmt.Fprintf(w, "  Subscribers: %d\n", update.Subscribers)
	if update.Snapshot != nil {
		snapshotJSON, err := json.Marshal(update.Snapshot)
		if err == nil {
			fmt.Fprintf(w, "  Snapshot: %s\n", string(snapshotJSON))
		}
	}
}

// formatSubscriptionDetails writes subscription details.
func formatSubscriptionDetails(w io.Writer, sub *journal.SubscriptionEvent) {
	fmt.Fprintf(w, "  Subscriber: %s\n", sub.Subscriber)
	if sub.Removed > 0 {
		fmt.Fprintf(w, "  Removed: %d\n", sub.Removed)
	}
	fmt.Fprintf(w, "  Subscribers: %d\n", sub.Subscribers)
}

// formatLifecycleDetails writes cache lifecycle details.
func formatLifecycleDetails(w io.Writer, lc *journal.LifecycleEvent) {
	if lc.Class != "" || lc.ID != "" {
		fmt.Fprintf(w, "  Identity: %s/%s\n", lc.Class, lc.ID)
	}
	fmt.Fprintf(w, "  Subscribers: %d\n", lc.Subscribers)
	if lc.GracePeriod > 0 {
		fmt.Fprintf(w, "  Grace: %s\n", formatDuration(lc.GracePeriod))
	}
	if lc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", lc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, errEvent *journal.ErrorEvent) {
	fmt.Fprintf(w, "  Message: %s\n", errEvent.Message)
	if errEvent.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", errEvent.Context)
	}
	if errEvent.Subscriber != "" {
		fmt.Fprintf(w, "  Subscriber: %s\n", errEvent.Subscriber)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// matches reports whether the event passes the filter.
func (f ViewFilter) matches(event journal.Event) bool {
	if f.Op != nil && event.Op != *f.Op {
		return false
	}
	if f.RecordID != "" && event.RecordID != f.RecordID {
		return false
	}
	if f.Class != "" && (event.Lifecycle == nil || event.Lifecycle.Class != f.Class) {
		return false
	}
	return true
}

// filterEvents returns events matching the filter criteria.
func filterEvents(events []journal.Event, filter ViewFilter) []journal.Event {
	var result []journal.Event
	for _, e := range events {
		if filter.matches(e) {
			result = append(result, e)
		}
	}
	return result
}

// ParseOpFlag parses an op string from command-line flag (case-insensitive).
func ParseOpFlag(s string) (journal.Op, error) {
	return parseOp(s)
}

// parseOp parses an op string (case-insensitive).
func parseOp(s string) (journal.Op, error) {
	switch strings.ToLower(s) {
	case "created":
		return journal.OpCreated, nil
	case "subscribe":
		return journal.OpSubscribe, nil
	case "unsubscribe":
		return journal.OpUnsubscribe, nil
	case "update":
		return journal.OpUpdate, nil
	case "eviction_scheduled", "eviction-scheduled":
		return journal.OpEvictionScheduled, nil
	case "eviction_canceled", "eviction-canceled":
		return journal.OpEvictionCanceled, nil
	case "evicted":
		return journal.OpEvicted, nil
	case "removed":
		return journal.OpRemoved, nil
	case "error":
		return journal.OpError, nil
	default:
		return 0, fmt.Errorf("invalid op: %s (must be created, subscribe, unsubscribe, update, eviction_scheduled, eviction_canceled, evicted, removed, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := journal.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if !filter.matches(event) {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
