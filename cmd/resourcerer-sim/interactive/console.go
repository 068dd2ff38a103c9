// Package interactive provides the interactive command-line interface
// for the record cache simulator.
package interactive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/noahgrant/resourcerer-go/pkg/broadcast"
	"github.com/noahgrant/resourcerer-go/pkg/cache"
	"github.com/noahgrant/resourcerer-go/pkg/mirror"
	"github.com/noahgrant/resourcerer-go/pkg/record"
	"github.com/noahgrant/resourcerer-go/pkg/registry"
)

// watcher is a named model subscription created by the watch command.
type watcher struct {
	name  string
	key   cache.Key
	model *mirror.Model[any]
}

// Console is the interactive command loop of the simulator. It drives
// a live cache, manages named watchers, and echoes asynchronous events
// (broadcasts, evictions, journal output) through readline.
type Console struct {
	reg   *registry.Registry
	cache *cache.Cache[any]
	tap   *JournalTap
	rl    *readline.Instance

	mu       sync.Mutex
	watchers map[string]*watcher

	// inCommand is true while a command executes. Asynchronous output
	// only redraws the prompt when the loop is waiting for input.
	inCommand atomic.Bool

	created atomic.Int64
	evicted atomic.Int64
}

// New creates the console and registers it as the registry's lifecycle
// tracker.
func New(reg *registry.Registry, c *cache.Cache[any], tap *JournalTap) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	console := &Console{
		reg:      reg,
		cache:    c,
		tap:      tap,
		rl:       rl,
		watchers: make(map[string]*watcher),
	}

	// Route journal echo through readline so it does not clobber the
	// prompt.
	tap.SetOutput(rl.Stdout(), console.refresh)
	reg.SetTracker(console)

	return console, nil
}

// Stdout returns the readline-managed stdout writer.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns the readline-managed stderr writer.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// RecordCreated implements registry.Tracker.
func (c *Console) RecordCreated(class, id string) {
	c.created.Add(1)
}

// RecordEvicted implements registry.Tracker. Evictions can fire from a
// grace timer while the prompt is idle, so they get an async notice.
func (c *Console) RecordEvicted(class, id string) {
	c.evicted.Add(1)
	fmt.Fprintf(c.rl.Stdout(), "\n[%s] Record evicted: %s/%s\n",
		time.Now().Format("15:04:05"), class, id)
	c.refresh()
}

// refresh redraws the prompt after asynchronous output. Skipped while
// a command is executing, where the prompt is not on screen.
func (c *Console) refresh() {
	if !c.inCommand.Load() {
		c.rl.Refresh()
	}
}

// Run processes commands until the context is cancelled or the user
// exits. Cancel is invoked on exit so the main goroutine can shut down.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	fmt.Fprintln(c.rl.Stdout(), "Type 'help' for available commands.")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err != nil {
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		c.inCommand.Store(true)

		switch cmd {
		case "help", "?":
			c.cmdHelp()
		case "create":
			c.cmdCreate(args)
		case "get", "g":
			c.cmdGet(args)
		case "set", "s":
			c.cmdSet(args)
		case "unset":
			c.cmdUnset(args)
		case "remove", "rm":
			c.cmdRemove(args)
		case "list", "ls":
			c.cmdList()
		case "classes":
			c.cmdClasses()
		case "watch", "w":
			c.cmdWatch(args)
		case "wset", "ws":
			c.cmdWset(args)
		case "wunset":
			c.cmdWunset(args)
		case "unwatch":
			c.cmdUnwatch(args)
		case "watchers":
			c.cmdWatchers()
		case "evict":
			c.cmdEvict(args)
		case "pending":
			c.cmdPending()
		case "journal", "j":
			c.cmdJournal(args)
		case "status":
			c.cmdStatus()
		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (try 'help')\n", cmd)
		}

		c.inCommand.Store(false)
	}
}

func (c *Console) cmdHelp() {
	fmt.Fprintln(c.rl.Stdout(), "Available commands:")
	fmt.Fprintln(c.rl.Stdout(), "  help, ?                         - Show this help")
	fmt.Fprintln(c.rl.Stdout(), "  create <class/id> [k=v ...]     - Create a record, optionally with attributes")
	fmt.Fprintln(c.rl.Stdout(), "  get, g <class/id>               - Show a record's attributes")
	fmt.Fprintln(c.rl.Stdout(), "  set, s <class/id> k=v [...]     - Set attributes (broadcast to all watchers)")
	fmt.Fprintln(c.rl.Stdout(), "  unset <class/id> key [...]      - Remove attributes")
	fmt.Fprintln(c.rl.Stdout(), "  remove, rm <class/id>           - Remove a record from the cache immediately")
	fmt.Fprintln(c.rl.Stdout(), "  list, ls                        - List cached records")
	fmt.Fprintln(c.rl.Stdout(), "  classes                         - List registered record classes")
	fmt.Fprintln(c.rl.Stdout(), "  watch, w <name> <class/id>      - Attach a named watcher to a record")
	fmt.Fprintln(c.rl.Stdout(), "  wset, ws <name> k=v [...]       - Set attributes through a watcher's model")
	fmt.Fprintln(c.rl.Stdout(), "  wunset <name> key [...]         - Remove attributes through a watcher's model")
	fmt.Fprintln(c.rl.Stdout(), "  unwatch <name>                  - Detach a watcher")
	fmt.Fprintln(c.rl.Stdout(), "  watchers                        - List attached watchers")
	fmt.Fprintln(c.rl.Stdout(), "  evict <class/id>                - Detach all watchers so the grace timer starts")
	fmt.Fprintln(c.rl.Stdout(), "  pending                         - List records awaiting eviction")
	fmt.Fprintln(c.rl.Stdout(), "  journal, j [on|off]             - Toggle journal event echo")
	fmt.Fprintln(c.rl.Stdout(), "  status                          - Show cache and session state")
	fmt.Fprintln(c.rl.Stdout(), "  quit, exit, q                   - Exit the simulator")
	fmt.Fprintln(c.rl.Stdout(), "")
	fmt.Fprintln(c.rl.Stdout(), "A watcher's own writes (wset/wunset) are not echoed back to it;")
	fmt.Fprintln(c.rl.Stdout(), "all other watchers of the record receive the broadcast.")
}

func (c *Console) cmdCreate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: create <class/id> [key=value ...]")
		return
	}
	key, err := parseKey(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	attrs, err := parseAssignments(args[1:])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	existed := c.cache.Contains(key)
	rec := c.cache.GetOrCreate(key)
	if len(attrs) > 0 {
		rec.Set(attrs, broadcast.Handle{})
	}

	if existed {
		fmt.Fprintf(c.rl.Stdout(), "Record %s already existed (%d attrs)\n", key, rec.Len())
	} else {
		fmt.Fprintf(c.rl.Stdout(), "Created %s (%d attrs)\n", key, rec.Len())
		if !c.reg.HasClass(key.Class) {
			fmt.Fprintf(c.rl.Stdout(), "Note: class %q is not registered, no defaults applied\n", key.Class)
		}
	}
}

func (c *Console) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: get <class/id>")
		return
	}
	key, err := parseKey(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	rec, ok := c.cache.Get(key)
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "Record %s not found\n", key)
		return
	}

	marker := ""
	if c.cache.EvictionPending(key) {
		marker = " [eviction pending]"
	}
	fmt.Fprintf(c.rl.Stdout(), "%s (%d attrs, %d subscribers)%s\n",
		key, rec.Len(), rec.SubscriberCount(), marker)

	snapshot := rec.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.rl.Stdout(), "  %s: %s\n", name, jsonValue(snapshot[name]))
	}
}

func (c *Console) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: set <class/id> key=value [key=value ...]")
		return
	}
	key, err := parseKey(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	attrs, err := parseAssignments(args[1:])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	rec, ok := c.cache.Get(key)
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "Record %s not found (create it first)\n", key)
		return
	}

	if rec.Set(attrs, broadcast.Handle{}) {
		fmt.Fprintf(c.rl.Stdout(), "Updated %s\n", key)
	} else {
		fmt.Fprintf(c.rl.Stdout(), "No change to %s\n", key)
	}
}

func (c *Console) cmdUnset(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: unset <class/id> key [key ...]")
		return
	}
	key, err := parseKey(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	rec, ok := c.cache.Get(key)
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "Record %s not found\n", key)
		return
	}

	if rec.Unset(args[1:], broadcast.Handle{}) {
		fmt.Fprintf(c.rl.Stdout(), "Updated %s\n", key)
	} else {
		fmt.Fprintf(c.rl.Stdout(), "No change to %s\n", key)
	}
}

func (c *Console) cmdRemove(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: remove <class/id>")
		return
	}
	key, err := parseKey(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	if !c.cache.Remove(key) {
		fmt.Fprintf(c.rl.Stdout(), "Record %s not found\n", key)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Removed %s\n", key)

	c.mu.Lock()
	var orphaned []string
	for name, w := range c.watchers {
		if w.key == key {
			orphaned = append(orphaned, name)
		}
	}
	c.mu.Unlock()
	if len(orphaned) > 0 {
		sort.Strings(orphaned)
		fmt.Fprintf(c.rl.Stdout(), "Note: watchers still attached to the removed record: %s\n",
			strings.Join(orphaned, ", "))
	}
}

func (c *Console) cmdList() {
	keys := c.cache.Keys()
	if len(keys) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "Cache is empty")
		return
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	fmt.Fprintf(c.rl.Stdout(), "Records: %d\n", len(keys))
	for _, key := range keys {
		rec, ok := c.cache.Get(key)
		if !ok {
			continue
		}
		marker := ""
		if c.cache.EvictionPending(key) {
			marker = " [eviction pending]"
		}
		fmt.Fprintf(c.rl.Stdout(), "  %-24s %d attrs, %d subscribers%s\n",
			key, rec.Len(), rec.SubscriberCount(), marker)
	}
}

func (c *Console) cmdClasses() {
	names := c.reg.Classes()
	if len(names) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No classes registered")
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "Classes: %d\n", len(names))
	for _, name := range names {
		spec, err := c.reg.Class(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.rl.Stdout(), "  %s\n", name)
		if spec.Description != "" {
			fmt.Fprintf(c.rl.Stdout(), "    %s\n", spec.Description)
		}
		if len(spec.Defaults) > 0 {
			fmt.Fprintf(c.rl.Stdout(), "    defaults: %s\n", jsonValue(spec.Defaults))
		}
	}
}

func (c *Console) cmdWatch(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: watch <name> <class/id>")
		return
	}
	name := args[0]
	if strings.Contains(name, "/") {
		fmt.Fprintf(c.rl.Stdout(), "Error: watcher name %q must not contain '/'\n", name)
		return
	}
	key, err := parseKey(args[1])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	c.mu.Lock()
	if _, exists := c.watchers[name]; exists {
		c.mu.Unlock()
		fmt.Fprintf(c.rl.Stdout(), "Watcher %s already exists\n", name)
		return
	}
	c.mu.Unlock()

	existed := c.cache.Contains(key)
	rec := c.cache.GetOrCreate(key)
	model := mirror.NewModel(rec)
	model.OnChange(func(snapshot record.Attrs[any]) {
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] %s %s changed: %s\n",
			time.Now().Format("15:04:05"), name, key, jsonValue(snapshot))
		c.refresh()
	})

	c.mu.Lock()
	c.watchers[name] = &watcher{name: name, key: key, model: model}
	c.mu.Unlock()

	if !existed {
		fmt.Fprintf(c.rl.Stdout(), "Created %s\n", key)
	}
	fmt.Fprintf(c.rl.Stdout(), "Watcher %s attached to %s (%d subscribers)\n",
		name, key, rec.SubscriberCount())
}

func (c *Console) cmdWset(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: wset <name> key=value [key=value ...]")
		return
	}
	w, ok := c.lookupWatcher(args[0])
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "Watcher %s not found\n", args[0])
		return
	}
	attrs, err := parseAssignments(args[1:])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	if w.model.Set(attrs) {
		fmt.Fprintf(c.rl.Stdout(), "Updated %s via %s\n", w.key, w.name)
	} else {
		fmt.Fprintf(c.rl.Stdout(), "No change to %s\n", w.key)
	}
}

func (c *Console) cmdWunset(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: wunset <name> key [key ...]")
		return
	}
	w, ok := c.lookupWatcher(args[0])
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "Watcher %s not found\n", args[0])
		return
	}

	if w.model.Unset(args[1:]...) {
		fmt.Fprintf(c.rl.Stdout(), "Updated %s via %s\n", w.key, w.name)
	} else {
		fmt.Fprintf(c.rl.Stdout(), "No change to %s\n", w.key)
	}
}

func (c *Console) cmdUnwatch(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: unwatch <name>")
		return
	}

	c.mu.Lock()
	w, ok := c.watchers[args[0]]
	if ok {
		delete(c.watchers, args[0])
	}
	c.mu.Unlock()
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "Watcher %s not found\n", args[0])
		return
	}

	w.model.Detach()
	fmt.Fprintf(c.rl.Stdout(), "Watcher %s detached from %s\n", w.name, w.key)
	if c.cache.EvictionPending(w.key) {
		fmt.Fprintf(c.rl.Stdout(), "Eviction scheduled for %s (grace %s)\n",
			w.key, c.cache.GracePeriod())
	}
}

func (c *Console) cmdWatchers() {
	c.mu.Lock()
	watchers := make([]*watcher, 0, len(c.watchers))
	for _, w := range c.watchers {
		watchers = append(watchers, w)
	}
	c.mu.Unlock()

	if len(watchers) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No watchers attached")
		return
	}
	sort.Slice(watchers, func(i, j int) bool {
		return watchers[i].name < watchers[j].name
	})

	fmt.Fprintf(c.rl.Stdout(), "Watchers: %d\n", len(watchers))
	for _, w := range watchers {
		fmt.Fprintf(c.rl.Stdout(), "  %-16s -> %s\n", w.name, w.key)
	}
}

func (c *Console) cmdEvict(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: evict <class/id>")
		return
	}
	key, err := parseKey(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	rec, ok := c.cache.Get(key)
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "Record %s not found\n", key)
		return
	}

	c.mu.Lock()
	var names []string
	var models []*mirror.Model[any]
	for name, w := range c.watchers {
		if w.key == key {
			names = append(names, name)
			models = append(models, w.model)
			delete(c.watchers, name)
		}
	}
	c.mu.Unlock()

	for _, model := range models {
		model.Detach()
	}
	if len(names) > 0 {
		sort.Strings(names)
		fmt.Fprintf(c.rl.Stdout(), "Detached watchers: %s\n", strings.Join(names, ", "))
	}

	if count := rec.SubscriberCount(); count > 0 {
		fmt.Fprintf(c.rl.Stdout(), "Record %s still has %d subscribers, eviction not scheduled\n",
			key, count)
		return
	}
	if c.cache.EvictionPending(key) {
		fmt.Fprintf(c.rl.Stdout(), "Eviction scheduled for %s (grace %s)\n",
			key, c.cache.GracePeriod())
	} else {
		fmt.Fprintf(c.rl.Stdout(), "Record %s has no subscribers; eviction arms when the last subscriber detaches (try watch, then unwatch)\n", key)
	}
}

func (c *Console) cmdPending() {
	var pending []cache.Key
	for _, key := range c.cache.Keys() {
		if c.cache.EvictionPending(key) {
			pending = append(pending, key)
		}
	}
	if len(pending) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No evictions pending")
		return
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].String() < pending[j].String()
	})

	fmt.Fprintf(c.rl.Stdout(), "Pending evictions: %d (grace %s)\n",
		len(pending), c.cache.GracePeriod())
	for _, key := range pending {
		fmt.Fprintf(c.rl.Stdout(), "  %s\n", key)
	}
}

func (c *Console) cmdJournal(args []string) {
	switch {
	case len(args) == 0:
		fmt.Fprintf(c.rl.Stdout(), "Journal echo: %s\n", onOff(c.tap.Enabled()))
	case args[0] == "on":
		c.tap.SetEnabled(true)
		fmt.Fprintln(c.rl.Stdout(), "Journal echo: on")
	case args[0] == "off":
		c.tap.SetEnabled(false)
		fmt.Fprintln(c.rl.Stdout(), "Journal echo: off")
	default:
		fmt.Fprintln(c.rl.Stdout(), "Usage: journal [on|off]")
	}
}

func (c *Console) cmdStatus() {
	c.mu.Lock()
	watcherCount := len(c.watchers)
	c.mu.Unlock()

	pending := 0
	for _, key := range c.cache.Keys() {
		if c.cache.EvictionPending(key) {
			pending++
		}
	}

	fmt.Fprintf(c.rl.Stdout(), "Records:           %d\n", c.cache.Len())
	fmt.Fprintf(c.rl.Stdout(), "Watchers:          %d\n", watcherCount)
	fmt.Fprintf(c.rl.Stdout(), "Pending evictions: %d\n", pending)
	fmt.Fprintf(c.rl.Stdout(), "Grace period:      %s\n", c.cache.GracePeriod())
	fmt.Fprintf(c.rl.Stdout(), "Journal echo:      %s\n", onOff(c.tap.Enabled()))
	fmt.Fprintf(c.rl.Stdout(), "Session:           %d created, %d evicted\n",
		c.created.Load(), c.evicted.Load())
}

// lookupWatcher returns the named watcher under the lock.
func (c *Console) lookupWatcher(name string) (*watcher, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.watchers[name]
	return w, ok
}

// parseKey parses a "class/id" record reference.
func parseKey(s string) (cache.Key, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return cache.Key{}, fmt.Errorf("invalid key %q (expected class/id)", s)
	}
	return cache.Key{Class: parts[0], ID: parts[1]}, nil
}

// parseAssignments parses key=value arguments into attributes.
func parseAssignments(args []string) (record.Attrs[any], error) {
	attrs := make(record.Attrs[any], len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected key=value)", arg)
		}
		attrs[parts[0]] = parseValue(parts[1])
	}
	return attrs, nil
}

// parseValue converts a command argument to a typed attribute value.
// Tries int, float, and bool before falling back to string.
func parseValue(s string) any {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return strings.Trim(s, "\"'")
}

// jsonValue renders v as compact JSON for display.
func jsonValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// Compile-time interface satisfaction check.
var _ registry.Tracker = (*Console)(nil)
