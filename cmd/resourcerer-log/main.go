// Command resourcerer-log is a tool for viewing and analyzing record
// journal files.
//
// Journal files are created by configuring a file journal on the registry
// (journal.path in the registry config) or by running resourcerer-sim with
// the -journal flag.
//
// Usage:
//
//	resourcerer-log <command> [flags] <file.rlog>
//
// Commands:
//
//	view     View journal file in human-readable format
//	export   Export journal file to JSON or CSV format
//	filter   Filter journal file and write to new file
//	stats    Show statistics about the journal file
//
// Examples:
//
//	# View all events
//	resourcerer-log view records.rlog
//
//	# View only update events
//	resourcerer-log view --op update records.rlog
//
//	# View lifecycle events for one class
//	resourcerer-log view --class user records.rlog
//
//	# Export to JSONL
//	resourcerer-log export --format jsonl records.rlog
//
//	# Filter by record instance and save to new file
//	resourcerer-log filter --record 8f14e45f-ceea-467f-a1d6-b0c1e2d3f4a5 -o filtered.rlog records.rlog
//
//	# Show statistics
//	resourcerer-log stats records.rlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/noahgrant/resourcerer-go/cmd/resourcerer-log/commands"
)

const usage = `resourcerer-log - Record Journal Analyzer

Usage:
  resourcerer-log <command> [flags] <file.rlog>

Commands:
  view     View journal file in human-readable format
  export   Export journal file to JSON or CSV format
  filter   Filter journal file and write to new file
  stats    Show statistics about the journal file

Use "resourcerer-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `resourcerer-log view - View journal file in human-readable format

Usage:
  resourcerer-log view [flags] <file.rlog>

Flags:
`)
		fs.PrintDefaults()
	}

	op := fs.String("op", "", "Filter by op (created, subscribe, unsubscribe, update, eviction_scheduled, eviction_canceled, evicted, removed, error)")
	record := fs.String("record", "", "Filter by record instance ID")
	class := fs.String("class", "", "Filter by record class (lifecycle events)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: journal file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	// Build filter
	var filter commands.ViewFilter

	if *op != "" {
		o, err := commands.ParseOpFlag(*op)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Op = &o
	}

	filter.RecordID = *record
	filter.Class = *class

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `resourcerer-log export - Export journal file to JSON or CSV format

Usage:
  resourcerer-log export [flags] <file.rlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: journal file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `resourcerer-log filter - Filter journal file and write to new file

Usage:
  resourcerer-log filter [flags] <file.rlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	record := fs.String("record", "", "Filter by record instance ID")
	class := fs.String("class", "", "Filter by record class (lifecycle events)")
	origin := fs.String("origin", "", "Filter by originating subscriber (update events)")
	op := fs.String("op", "", "Filter by op")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: journal file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	opts := commands.FilterOptions{
		Output:    *output,
		RecordID:  *record,
		Class:     *class,
		Origin:    *origin,
		Op:        *op,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
	}

	if err := commands.RunFilter(path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `resourcerer-log stats - Show statistics about the journal file

Usage:
  resourcerer-log stats <file.rlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: journal file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
