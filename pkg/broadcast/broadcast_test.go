package broadcast

import (
	"sync"
	"testing"
)

func TestNewHandleUnique(t *testing.T) {
	seen := make(map[Handle]bool)
	for i := 0; i < 1000; i++ {
		h := NewHandle()
		if h.IsZero() {
			t.Fatal("NewHandle() returned the zero handle")
		}
		if seen[h] {
			t.Fatalf("NewHandle() returned duplicate handle %v", h)
		}
		seen[h] = true
	}
}

func TestNewHandleConcurrent(t *testing.T) {
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[Handle]bool)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				h := NewHandle()
				mu.Lock()
				if seen[h] {
					t.Errorf("duplicate handle %v", h)
				}
				seen[h] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestHandleString(t *testing.T) {
	var zero Handle
	if got := zero.String(); got != "system" {
		t.Errorf("zero handle String() = %q, want %q", got, "system")
	}

	h := NewHandle()
	if got := h.String(); got == "system" || got == "" {
		t.Errorf("minted handle String() = %q, want sub-N form", got)
	}
}

func TestOnUpdateCount(t *testing.T) {
	b := NewBroadcaster[string]()

	if b.Count() != 0 {
		t.Errorf("Count() = %d on empty broadcaster, want 0", b.Count())
	}

	h1 := NewHandle()
	h2 := NewHandle()
	b.OnUpdate(h1, func(string) {})
	b.OnUpdate(h2, func(string) {})

	if b.Count() != 2 {
		t.Errorf("Count() = %d, want 2", b.Count())
	}
}

func TestTriggerDeliversInRegistrationOrder(t *testing.T) {
	b := NewBroadcaster[int]()

	var order []string
	b.OnUpdate(NewHandle(), func(int) { order = append(order, "first") })
	b.OnUpdate(NewHandle(), func(int) { order = append(order, "second") })
	b.OnUpdate(NewHandle(), func(int) { order = append(order, "third") })

	delivered := b.Trigger(1, Handle{})
	if delivered != 3 {
		t.Fatalf("Trigger() = %d, want 3", delivered)
	}

	want := []string{"first", "second", "third"}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("delivery[%d] = %q, want %q", i, order[i], name)
		}
	}
}

func TestTriggerExcludesOrigin(t *testing.T) {
	b := NewBroadcaster[string]()

	origin := NewHandle()
	other := NewHandle()

	originCalls := 0
	otherCalls := 0
	b.OnUpdate(origin, func(string) { originCalls++ })
	b.OnUpdate(other, func(string) { otherCalls++ })

	delivered := b.Trigger("payload", origin)

	if delivered != 1 {
		t.Errorf("Trigger() = %d, want 1", delivered)
	}
	if originCalls != 0 {
		t.Errorf("originator received %d broadcasts, want 0", originCalls)
	}
	if otherCalls != 1 {
		t.Errorf("other subscriber received %d broadcasts, want 1", otherCalls)
	}
}

func TestTriggerZeroOriginDeliversToAll(t *testing.T) {
	b := NewBroadcaster[string]()

	calls := 0
	b.OnUpdate(NewHandle(), func(string) { calls++ })
	b.OnUpdate(NewHandle(), func(string) { calls++ })

	delivered := b.Trigger("payload", Handle{})

	if delivered != 2 {
		t.Errorf("Trigger() = %d, want 2", delivered)
	}
	if calls != 2 {
		t.Errorf("subscribers received %d broadcasts, want 2", calls)
	}
}

func TestTriggerPassesPayload(t *testing.T) {
	b := NewBroadcaster[map[string]int]()

	var got map[string]int
	b.OnUpdate(NewHandle(), func(p map[string]int) { got = p })

	b.Trigger(map[string]int{"count": 7}, Handle{})

	if got == nil || got["count"] != 7 {
		t.Errorf("callback payload = %v, want map[count:7]", got)
	}
}

func TestOffUpdateRemovesAllMatching(t *testing.T) {
	b := NewBroadcaster[string]()

	h := NewHandle()
	other := NewHandle()

	// Same handle registered twice plus one unrelated subscriber.
	b.OnUpdate(h, func(string) {})
	b.OnUpdate(other, func(string) {})
	b.OnUpdate(h, func(string) {})

	removed := b.OffUpdate(h)

	if removed != 2 {
		t.Errorf("OffUpdate() = %d, want 2", removed)
	}
	if b.Count() != 1 {
		t.Errorf("Count() = %d after OffUpdate, want 1", b.Count())
	}

	handles := b.Handles()
	if len(handles) != 1 || handles[0] != other {
		t.Errorf("Handles() = %v, want [%v]", handles, other)
	}
}

func TestOffUpdateUnknownHandle(t *testing.T) {
	b := NewBroadcaster[string]()
	b.OnUpdate(NewHandle(), func(string) {})

	removed := b.OffUpdate(NewHandle())

	if removed != 0 {
		t.Errorf("OffUpdate(unknown) = %d, want 0", removed)
	}
	if b.Count() != 1 {
		t.Errorf("Count() = %d after no-op OffUpdate, want 1", b.Count())
	}
}

func TestDuplicateRegistrationDeliversTwice(t *testing.T) {
	b := NewBroadcaster[string]()

	h := NewHandle()
	calls := 0
	b.OnUpdate(h, func(string) { calls++ })
	b.OnUpdate(h, func(string) { calls++ })

	b.Trigger("payload", Handle{})

	if calls != 2 {
		t.Errorf("duplicate registration received %d broadcasts, want 2", calls)
	}
}

func TestTriggerPanicIsolation(t *testing.T) {
	b := NewBroadcaster[string]()

	panicker := NewHandle()
	b.OnUpdate(panicker, func(string) { panic("subscriber failed") })

	survivorCalls := 0
	b.OnUpdate(NewHandle(), func(string) { survivorCalls++ })

	var panicHandle Handle
	var panicValue any
	b.OnPanic(func(h Handle, recovered any) {
		panicHandle = h
		panicValue = recovered
	})

	delivered := b.Trigger("payload", Handle{})

	if delivered != 2 {
		t.Errorf("Trigger() = %d, want 2 (panicking callback counts)", delivered)
	}
	if survivorCalls != 1 {
		t.Errorf("subscriber after panicker received %d broadcasts, want 1", survivorCalls)
	}
	if panicHandle != panicker {
		t.Errorf("OnPanic handle = %v, want %v", panicHandle, panicker)
	}
	if panicValue != "subscriber failed" {
		t.Errorf("OnPanic recovered = %v, want %q", panicValue, "subscriber failed")
	}
}

func TestTriggerPanicWithoutHook(t *testing.T) {
	b := NewBroadcaster[string]()

	b.OnUpdate(NewHandle(), func(string) { panic("boom") })

	calls := 0
	b.OnUpdate(NewHandle(), func(string) { calls++ })

	// Must not propagate the panic even with no OnPanic hook set.
	b.Trigger("payload", Handle{})

	if calls != 1 {
		t.Errorf("subscriber after panicker received %d broadcasts, want 1", calls)
	}
}

func TestTriggerSnapshotsSubscribers(t *testing.T) {
	b := NewBroadcaster[string]()

	lateCalls := 0
	b.OnUpdate(NewHandle(), func(string) {
		// Subscribing mid-broadcast must not receive the current round.
		b.OnUpdate(NewHandle(), func(string) { lateCalls++ })
	})

	b.Trigger("first", Handle{})
	if lateCalls != 0 {
		t.Errorf("mid-broadcast subscriber received %d broadcasts in same round, want 0", lateCalls)
	}

	b.Trigger("second", Handle{})
	if lateCalls != 1 {
		t.Errorf("mid-broadcast subscriber received %d broadcasts in next round, want 1", lateCalls)
	}
}

func TestTriggerSnapshotSurvivesRemoval(t *testing.T) {
	b := NewBroadcaster[string]()

	second := NewHandle()
	secondCalls := 0

	// First subscriber removes the second one mid-broadcast; the second
	// still receives the current round.
	b.OnUpdate(NewHandle(), func(string) { b.OffUpdate(second) })
	b.OnUpdate(second, func(string) { secondCalls++ })

	b.Trigger("payload", Handle{})

	if secondCalls != 1 {
		t.Errorf("removed-mid-broadcast subscriber received %d, want 1", secondCalls)
	}
	if b.Count() != 1 {
		t.Errorf("Count() = %d after mid-broadcast removal, want 1", b.Count())
	}
}

func TestTriggerEmptyBroadcaster(t *testing.T) {
	b := NewBroadcaster[string]()

	if delivered := b.Trigger("payload", Handle{}); delivered != 0 {
		t.Errorf("Trigger() on empty broadcaster = %d, want 0", delivered)
	}
}

func TestHandlesOrder(t *testing.T) {
	b := NewBroadcaster[string]()

	h1 := NewHandle()
	h2 := NewHandle()
	h3 := NewHandle()
	b.OnUpdate(h2, func(string) {})
	b.OnUpdate(h1, func(string) {})
	b.OnUpdate(h3, func(string) {})

	got := b.Handles()
	want := []Handle{h2, h1, h3}
	if len(got) != len(want) {
		t.Fatalf("Handles() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Handles()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConcurrentSubscribeTrigger(t *testing.T) {
	b := NewBroadcaster[int]()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h := NewHandle()
				b.OnUpdate(h, func(int) {})
				b.Trigger(j, Handle{})
				b.OffUpdate(h)
			}
		}()
	}
	wg.Wait()

	if b.Count() != 0 {
		t.Errorf("Count() = %d after balanced subscribe/unsubscribe, want 0", b.Count())
	}
}
