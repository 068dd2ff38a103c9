package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/noahgrant/resourcerer-go/pkg/journal"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	RecordID  string
	Class     string
	Origin    string
	Op        string
	TimeStart string
	TimeEnd   string
}

// RunFilter filters the journal file and writes matching events to a new file.
func RunFilter(path string, opts FilterOptions) error {
	// Build filter
	filter := journal.Filter{
		RecordID: opts.RecordID,
		Class:    opts.Class,
		Origin:   opts.Origin,
	}

	if opts.Op != "" {
		o, err := parseOp(opts.Op)
		if err != nil {
			return err
		}
		filter.Op = &o
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	// Open input
	reader, err := journal.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer reader.Close()

	// Create file logger to write filtered events
	logger, err := journal.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Printf("Filtered %d events to %s\n", count, opts.Output)
	return nil
}
