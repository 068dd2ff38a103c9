// Command resourcerer-sim is an interactive simulator for the record
// synchronization core.
//
// It runs a live registry and cache and exposes them through a readline
// console: create and inspect records, attach named watchers, set and
// unset attributes, observe broadcasts as they arrive, and watch the
// grace-period eviction flow. All journal events can be echoed to the
// console or captured to a file for later analysis with resourcerer-log.
//
// Usage:
//
//	resourcerer-sim [flags]
//
// Flags:
//
//	-config string     Registry configuration file (YAML)
//	-grace duration    Eviction grace period override (e.g. 30s, 2m)
//	-journal string    Journal file path (.rlog)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start with defaults (2m grace period, journal echo off)
//	resourcerer-sim
//
//	# Short grace period to watch evictions happen
//	resourcerer-sim -grace 10s
//
//	# Capture a journal for resourcerer-log
//	resourcerer-sim -journal session.rlog
//
//	# Load registered classes and defaults from a config file
//	resourcerer-sim -config registry.yaml
//
// Interactive Commands:
//
//	create <class>/<id>           - Create a record in the cache
//	get <class>/<id> [key]       - Show a record's attributes
//	set <class>/<id> <key> <val> - Set an attribute
//	watch <name> <class>/<id>    - Attach a named watcher
//	wset <name> <key> <val>      - Write through a watcher
//	evict <class>/<id>           - Detach watchers and start the grace timer
//	journal on|off               - Toggle journal echo
//	quit                         - Exit the simulator
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noahgrant/resourcerer-go/cmd/resourcerer-sim/interactive"
	"github.com/noahgrant/resourcerer-go/pkg/duration"
	"github.com/noahgrant/resourcerer-go/pkg/journal"
	"github.com/noahgrant/resourcerer-go/pkg/registry"
)

// Config holds the simulator configuration.
type Config struct {
	ConfigFile  string
	Grace       time.Duration
	JournalPath string
	LogLevel    string
}

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Registry configuration file (YAML)")
	flag.DurationVar(&config.Grace, "grace", 0, "Eviction grace period override (e.g. 30s, 2m)")
	flag.StringVar(&config.JournalPath, "journal", "", "Journal file path (.rlog)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	// Setup logging
	setupLogging(config.LogLevel)

	log.Println("Resourcerer Simulator")
	log.Println("=====================")

	// Load registry configuration
	regConfig, err := loadRegistryConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Printf("Grace period: %s", regConfig.EvictionGrace())
	if len(regConfig.Classes) > 0 {
		log.Printf("Registered classes: %d", len(regConfig.Classes))
	}

	// Journal sinks: optional file capture plus a console tap that the
	// interactive loop can toggle.
	tap := interactive.NewJournalTap(os.Stdout)
	sinks := []journal.Logger{tap}

	if config.JournalPath != "" {
		fileLogger, err := journal.NewFileLogger(config.JournalPath)
		if err != nil {
			log.Fatalf("Failed to create journal file: %v", err)
		}
		defer fileLogger.Close()
		sinks = append(sinks, fileLogger)
		log.Printf("Journal file: %s", config.JournalPath)
	}

	reg := registry.NewRegistryWithJournal(regConfig, journal.NewMultiLogger(sinks...))
	cache := reg.NewCache()

	// Start console
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	console, err := interactive.New(reg, cache, tap)
	if err != nil {
		log.Fatalf("Failed to create console: %v", err)
	}
	// Redirect log output through readline to avoid interfering with input
	log.SetOutput(console.Stdout())
	go console.Run(ctx, cancel)

	// Wait for shutdown signal or context cancellation
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
		// Context was cancelled by the quit command
	}

	log.Println("Shutting down...")
	cache.Clear()

	log.Println("Goodbye!")
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

// loadRegistryConfig builds the registry configuration from the config
// file, applying command-line overrides.
func loadRegistryConfig() (*registry.Config, error) {
	var regConfig *registry.Config

	if config.ConfigFile != "" {
		loaded, err := registry.LoadConfig(config.ConfigFile)
		if err != nil {
			return nil, err
		}
		regConfig = loaded
	} else {
		def := registry.DefaultConfig()
		regConfig = &def
	}

	if config.Grace < 0 {
		return nil, fmt.Errorf("grace period must be positive, got %s", config.Grace)
	}
	if config.Grace > 0 {
		regConfig.GracePeriod = duration.Duration(config.Grace)
	}

	return regConfig, nil
}
