package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/noahgrant/resourcerer-go/pkg/journal"
)

// RunExport exports the journal file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := journal.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *journal.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *journal.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Write header
	header := []string{"timestamp", "record_id", "op", "class", "id", "origin", "keys", "subscribers", "reason", "message"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		// Flatten type-specific payloads into columns
		var class, id, origin, keys, subscribers, reason, message string
		switch {
		case event.Update != nil:
			origin = event.Update.Origin
			keys = strings.Join(event.Update.Keys, ";")
			subscribers = fmt.Sprintf("%d", event.Update.Subscribers)
		case event.Subscription != nil:
			origin = event.Subscription.Subscriber
			subscribers = fmt.Sprintf("%d", event.Subscription.Subscribers)
		case event.Lifecycle != nil:
			class = event.Lifecycle.Class
			id = event.Lifecycle.ID
			subscribers = fmt.Sprintf("%d", event.Lifecycle.Subscribers)
			reason = event.Lifecycle.Reason
		case event.Error != nil:
			message = event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.RecordID,
			event.Op.String(),
			class,
			id,
			origin,
			keys,
			subscribers,
			reason,
			message,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
