package resourcerer_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/noahgrant/resourcerer-go/pkg/broadcast"
	"github.com/noahgrant/resourcerer-go/pkg/cache"
	"github.com/noahgrant/resourcerer-go/pkg/duration"
	"github.com/noahgrant/resourcerer-go/pkg/journal"
	"github.com/noahgrant/resourcerer-go/pkg/mirror"
	"github.com/noahgrant/resourcerer-go/pkg/record"
	"github.com/noahgrant/resourcerer-go/pkg/registry"
)

// TestE2E_ModelSync tests that models attached to one cached record
// stay synchronized through broadcasts.
func TestE2E_ModelSync(t *testing.T) {
	c := cache.NewCache[any]()
	key := cache.Key{Class: "user", ID: "42"}
	rec := c.GetOrCreate(key)

	alice := mirror.NewModel(rec)
	defer alice.Detach()
	bob := mirror.NewModel(rec)
	defer bob.Detach()

	var aliceChanges, bobChanges int
	alice.OnChange(func(record.Attrs[any]) { aliceChanges++ })
	bob.OnChange(func(record.Attrs[any]) { bobChanges++ })

	// Alice writes; bob receives the broadcast, alice does not.
	if !alice.Set(record.Attrs[any]{"name": "alice", "role": "admin"}) {
		t.Fatal("expected first write to change the record")
	}
	if aliceChanges != 0 {
		t.Errorf("originator received its own broadcast %d times", aliceChanges)
	}
	if bobChanges != 1 {
		t.Errorf("expected 1 broadcast on the peer, got %d", bobChanges)
	}

	name, ok := bob.Get("name")
	if !ok || name != "alice" {
		t.Errorf("peer mirror name = %v, want alice", name)
	}

	// An identical write is a no-op and broadcasts nothing.
	if alice.Set(record.Attrs[any]{"name": "alice"}) {
		t.Error("expected identical write to be a no-op")
	}
	if bobChanges != 1 {
		t.Errorf("no-op write reached the peer (%d broadcasts)", bobChanges)
	}

	// A system write with no originating model reaches both.
	if !rec.Set(record.Attrs[any]{"active": true}, broadcast.Handle{}) {
		t.Fatal("expected system write to change the record")
	}
	if aliceChanges != 1 || bobChanges != 2 {
		t.Errorf("system write delivery: alice=%d bob=%d, want 1 and 2", aliceChanges, bobChanges)
	}

	// Both mirrors converge on the full snapshot.
	if alice.Len() != 3 || bob.Len() != 3 {
		t.Errorf("mirror sizes: alice=%d bob=%d, want 3", alice.Len(), bob.Len())
	}
}

// TestE2E_EvictionLifecycle tests the grace period flow against the
// real clock: cancel on reuse, evict on expiry.
func TestE2E_EvictionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-dependent integration test in short mode")
	}

	cfg := registry.DefaultConfig()
	cfg.GracePeriod = duration.Duration(75 * time.Millisecond)
	reg := registry.NewRegistryWithJournal(&cfg, nil)
	c := reg.NewCache()

	key := cache.Key{Class: "session", ID: "s-1"}
	model := mirror.NewModel(c.GetOrCreate(key))
	model.Set(record.Attrs[any]{"state": "active"})

	// Requesting the record during the grace period cancels the
	// pending eviction and keeps its state.
	model.Detach()
	if !c.EvictionPending(key) {
		t.Fatal("expected eviction pending after last detach")
	}

	rec := c.GetOrCreate(key)
	if c.EvictionPending(key) {
		t.Fatal("expected pending eviction to be canceled on reuse")
	}
	if state, _ := rec.Get("state"); state != "active" {
		t.Errorf("state = %v, want active", state)
	}

	// With no subscriber left, the grace period runs out.
	keepalive := mirror.NewModel(rec)
	keepalive.Detach()

	deadline := time.Now().Add(2 * time.Second)
	for c.Contains(key) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if c.Contains(key) {
		t.Fatal("record still cached after grace period")
	}

	// A fresh request after eviction builds a new, empty record.
	fresh := c.GetOrCreate(key)
	if _, ok := fresh.Get("state"); ok {
		t.Error("expected a fresh record after eviction")
	}
}

// TestE2E_JournalRoundtrip tests that a full record lifecycle is
// journaled to disk and reads back intact.
func TestE2E_JournalRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.rlog")
	fileLogger, err := journal.NewFileLogger(path)
	if err != nil {
		t.Fatalf("Failed to create journal file: %v", err)
	}

	cfg := registry.DefaultConfig()
	reg := registry.NewRegistryWithJournal(&cfg, fileLogger)
	c := reg.NewCache()

	key := cache.Key{Class: "session", ID: "s-1"}
	rec := c.GetOrCreate(key)
	model := mirror.NewModel(rec)
	model.Set(record.Attrs[any]{"state": "active", "ttl": int64(300)})
	model.Unset("ttl")
	model.Detach()
	c.Remove(key)

	if err := fileLogger.Close(); err != nil {
		t.Fatalf("Failed to close journal: %v", err)
	}

	events := readAllEvents(t, path)

	wantOps := []journal.Op{
		journal.OpCreated,
		journal.OpSubscribe,
		journal.OpUpdate,
		journal.OpUpdate,
		journal.OpUnsubscribe,
		journal.OpEvictionScheduled,
		journal.OpRemoved,
	}
	if len(events) != len(wantOps) {
		t.Fatalf("expected %d events, got %d", len(wantOps), len(events))
	}
	for i, want := range wantOps {
		if events[i].Op != want {
			t.Errorf("event[%d] op = %s, want %s", i, events[i].Op, want)
		}
	}

	// Every event carries the same record instance ID.
	recordID := events[0].RecordID
	if recordID == "" {
		t.Fatal("expected a record instance ID")
	}
	for i, event := range events {
		if event.RecordID != recordID {
			t.Errorf("event[%d] record ID = %s, want %s", i, event.RecordID, recordID)
		}
	}

	// The creation event binds the instance to its cache identity.
	created := events[0].Lifecycle
	if created == nil || created.Class != "session" || created.ID != "s-1" {
		t.Errorf("creation identity = %+v, want session/s-1", created)
	}

	// The set carries sorted keys, the originating subscriber, and the
	// resulting snapshot.
	set := events[2].Update
	if set == nil {
		t.Fatal("expected update details on the set event")
	}
	if len(set.Keys) != 2 || set.Keys[0] != "state" || set.Keys[1] != "ttl" {
		t.Errorf("set keys = %v, want [state ttl]", set.Keys)
	}
	if set.Origin == "" || set.Origin == "system" {
		t.Errorf("set origin = %q, want the model's handle", set.Origin)
	}
	if set.Unset {
		t.Error("set event marked as unset")
	}
	snapshot, ok := set.Snapshot.(map[string]any)
	if !ok {
		t.Fatalf("snapshot decoded as %T, want map[string]any", set.Snapshot)
	}
	if snapshot["state"] != "active" {
		t.Errorf("snapshot state = %v, want active", snapshot["state"])
	}

	// The unset is flagged and scoped to the removed key.
	unset := events[3].Update
	if unset == nil || !unset.Unset || len(unset.Keys) != 1 || unset.Keys[0] != "ttl" {
		t.Errorf("unset details = %+v, want unset of ttl", unset)
	}

	// Detaching the last subscriber schedules eviction with the
	// configured grace.
	scheduled := events[5].Lifecycle
	if scheduled == nil || scheduled.GracePeriod != 2*time.Minute {
		t.Errorf("scheduled details = %+v, want 2m grace", scheduled)
	}

	// Filtered readers scope the stream.
	opFilter := journal.OpUpdate
	reader, err := journal.NewFilteredReader(path, journal.Filter{Op: &opFilter})
	if err != nil {
		t.Fatalf("Failed to create filtered reader: %v", err)
	}
	defer reader.Close()

	updates := 0
	for {
		if _, err := reader.Next(); err != nil {
			break
		}
		updates++
	}
	if updates != 2 {
		t.Errorf("filtered reader returned %d updates, want 2", updates)
	}
}

// TestE2E_ConfigDefaults tests config-driven class declarations end to
// end: load from YAML, build a registry, and verify new records start
// with the declared defaults.
func TestE2E_ConfigDefaults(t *testing.T) {
	configYAML := `
grace_period: 30s
classes:
  user:
    description: Application users
    defaults:
      active: true
      role: member
  todo:
    description: Todo items
`
	path := writeConfigFile(t, configYAML)

	cfg, err := registry.LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.EvictionGrace() != 30*time.Second {
		t.Errorf("grace = %s, want 30s", cfg.EvictionGrace())
	}

	reg, err := registry.NewRegistry(cfg)
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	defer reg.Close()

	classes := reg.Classes()
	if len(classes) != 2 || classes[0] != "todo" || classes[1] != "user" {
		t.Errorf("classes = %v, want [todo user]", classes)
	}

	c := reg.NewCache()
	if c.GracePeriod() != 30*time.Second {
		t.Errorf("cache grace = %s, want 30s", c.GracePeriod())
	}

	// Records of a declared class start with its defaults.
	rec := c.GetOrCreate(cache.Key{Class: "user", ID: "1"})
	role, ok := rec.Get("role")
	if !ok || role != "member" {
		t.Errorf("role = %v, want member", role)
	}
	active, ok := rec.Get("active")
	if !ok || active != true {
		t.Errorf("active = %v, want true", active)
	}

	// Undeclared classes start empty.
	plain := c.GetOrCreate(cache.Key{Class: "session", ID: "1"})
	if plain.Len() != 0 {
		t.Errorf("undeclared class starts with %d attrs, want 0", plain.Len())
	}

	// A model writing over a default wins.
	model := mirror.NewModel(rec)
	defer model.Detach()
	model.Set(record.Attrs[any]{"role": "admin"})
	if role, _ := rec.Get("role"); role != "admin" {
		t.Errorf("role after write = %v, want admin", role)
	}
}

// TestE2E_ConcurrentModels tests that concurrent writers through
// separate models converge on the record.
func TestE2E_ConcurrentModels(t *testing.T) {
	c := cache.NewCache[any]()
	rec := c.GetOrCreate(cache.Key{Class: "doc", ID: "shared"})

	const writers = 8

	models := make([]*mirror.Model[any], writers)
	for i := range models {
		models[i] = mirror.NewModel(rec)
		defer models[i].Detach()
	}

	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(i int, m *mirror.Model[any]) {
			defer wg.Done()
			m.Set(record.Attrs[any]{fmt.Sprintf("field-%d", i): int64(i)})
		}(i, model)
	}
	wg.Wait()

	// The record converges on every write.
	if rec.Len() != writers {
		t.Fatalf("record has %d attrs, want %d", rec.Len(), writers)
	}

	// Broadcasts from concurrent writers can arrive out of order, so
	// settle every mirror with one final full-snapshot broadcast.
	rec.Set(record.Attrs[any]{"settled": true}, broadcast.Handle{})
	for i, model := range models {
		if model.Len() != writers+1 {
			t.Errorf("model %d has %d attrs, want %d", i, model.Len(), writers+1)
		}
	}
}

// Helper functions

// readAllEvents reads every event from a journal file.
func readAllEvents(t *testing.T, path string) []journal.Event {
	t.Helper()

	reader, err := journal.NewReader(path)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer reader.Close()

	var events []journal.Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Failed to read journal: %v", err)
		}
		events = append(events, event)
	}
}

// writeConfigFile writes a registry configuration to a temp file.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "registry.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}
