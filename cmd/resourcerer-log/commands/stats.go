package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/noahgrant/resourcerer-go/pkg/journal"
)

// Stats holds aggregate statistics about a journal file.
type Stats struct {
	TotalEvents int
	EventsByOp  map[journal.Op]int
	Records     map[string]*RecordStats
	Errors      int
	TimeRange   struct {
		Start time.Time
		End   time.Time
	}
}

// RecordStats holds statistics for a single record instance.
type RecordStats struct {
	FirstSeen    time.Time
	LastSeen     time.Time
	Events       int
	Class        string
	ID           string
	Updates      int
	LastUpdateAt time.Time
	Evicted      bool
}

// RunStats analyzes the journal file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := journal.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByOp: make(map[journal.Op]int),
		Records:    make(map[string]*RecordStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByOp[event.Op]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Track per-record stats
		rec, ok := stats.Records[event.RecordID]
		if !ok {
			rec = &RecordStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Records[event.RecordID] = rec
		}
		rec.Events++
		if event.Timestamp.After(rec.LastSeen) {
			rec.LastSeen = event.Timestamp
		}

		// The CREATED event binds the instance ID to its cache identity
		if event.Lifecycle != nil && rec.Class == "" {
			rec.Class = event.Lifecycle.Class
			rec.ID = event.Lifecycle.ID
		}

		// Count updates per record
		if event.Op == journal.OpUpdate {
			rec.Updates++
			if event.Timestamp.After(rec.LastUpdateAt) {
				rec.LastUpdateAt = event.Timestamp
			}
		}

		if event.Op == journal.OpEvicted {
			rec.Evicted = true
		}

		// Count errors
		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Record Journal Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by op
	fmt.Fprintln(w, "Events by Op:")
	ops := []journal.Op{
		journal.OpCreated,
		journal.OpSubscribe,
		journal.OpUnsubscribe,
		journal.OpUpdate,
		journal.OpEvictionScheduled,
		journal.OpEvictionCanceled,
		journal.OpEvicted,
		journal.OpRemoved,
		journal.OpError,
	}
	for _, op := range ops {
		if count := stats.EventsByOp[op]; count > 0 {
			fmt.Fprintf(w, "  %-20s %d\n", op.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Records
	fmt.Fprintf(w, "Records: %d\n", len(stats.Records))
	if len(stats.Records) > 0 {
		// Sort by first seen time
		type recordInfo struct {
			id    string
			stats *RecordStats
		}
		records := make([]recordInfo, 0, len(stats.Records))
		for id, rs := range stats.Records {
			records = append(records, recordInfo{id, rs})
		}
		sort.Slice(records, func(i, j int) bool {
			return records[i].stats.FirstSeen.Before(records[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, r := range records {
			duration := r.stats.LastSeen.Sub(r.stats.FirstSeen).Round(time.Millisecond)
			shortID := r.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, r.stats.Events, duration)
			if r.stats.Class != "" || r.stats.ID != "" {
				fmt.Fprintf(w, "           Identity: %s/%s\n", r.stats.Class, r.stats.ID)
			}
			if r.stats.Updates > 0 {
				fmt.Fprintf(w, "           Updates: %d (last: %s)\n",
					r.stats.Updates, r.stats.LastUpdateAt.Format(time.RFC3339))
			}
			if r.stats.Evicted {
				fmt.Fprintf(w, "           Evicted\n")
			}
		}
	}

	// Errors
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
