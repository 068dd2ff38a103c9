package journal

import (
	"bytes"
	"testing"
	"time"
)

func TestEncodeDecodeUpdateEvent(t *testing.T) {
	event := Event{
		Timestamp: time.Now(),
		RecordID:  "0195b292-7d12-7e01-8f63-2b9a4c1de551",
		Op:        OpUpdate,
		Update: &UpdateEvent{
			Origin:      "sub-3",
			Keys:        []string{"name", "status"},
			Subscribers: 2,
			Snapshot:    map[string]any{"name": "alice", "status": "active"},
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.RecordID != event.RecordID {
		t.Errorf("RecordID: got %q, want %q", decoded.RecordID, event.RecordID)
	}
	if decoded.Op != OpUpdate {
		t.Errorf("Op: got %v, want %v", decoded.Op, OpUpdate)
	}
	if decoded.Update == nil {
		t.Fatal("Update is nil after roundtrip")
	}
	if decoded.Update.Origin != "sub-3" {
		t.Errorf("Update.Origin: got %q, want %q", decoded.Update.Origin, "sub-3")
	}
	if len(decoded.Update.Keys) != 2 || decoded.Update.Keys[0] != "name" {
		t.Errorf("Update.Keys: got %v, want [name status]", decoded.Update.Keys)
	}
	if decoded.Update.Subscribers != 2 {
		t.Errorf("Update.Subscribers: got %d, want 2", decoded.Update.Subscribers)
	}

	// Timestamp should survive with nanosecond precision
	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, event.Timestamp)
	}
}

func TestEncodeDecodeLifecycleEvent(t *testing.T) {
	event := Event{
		Timestamp: time.Now(),
		RecordID:  "0195b292-7d12-7e01-8f63-2b9a4c1de551",
		Op:        OpEvictionScheduled,
		Lifecycle: &LifecycleEvent{
			Class:       "user",
			ID:          "42",
			Subscribers: 0,
			GracePeriod: 2 * time.Minute,
			Reason:      "last subscriber detached",
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Lifecycle == nil {
		t.Fatal("Lifecycle is nil after roundtrip")
	}
	if decoded.Lifecycle.Class != "user" || decoded.Lifecycle.ID != "42" {
		t.Errorf("Lifecycle identity: got %s/%s, want user/42",
			decoded.Lifecycle.Class, decoded.Lifecycle.ID)
	}
	if decoded.Lifecycle.GracePeriod != 2*time.Minute {
		t.Errorf("Lifecycle.GracePeriod: got %v, want 2m", decoded.Lifecycle.GracePeriod)
	}
}

func TestEncodeOmitsEmptyPayloads(t *testing.T) {
	full := Event{
		Timestamp: time.Now(),
		RecordID:  "r",
		Op:        OpUpdate,
		Update: &UpdateEvent{
			Keys:        []string{"a", "b", "c"},
			Subscribers: 5,
			Snapshot:    map[string]any{"a": 1, "b": 2, "c": 3},
		},
	}
	bare := Event{
		Timestamp: full.Timestamp,
		RecordID:  "r",
		Op:        OpRemoved,
	}

	fullData, err := EncodeEvent(full)
	if err != nil {
		t.Fatalf("EncodeEvent(full) failed: %v", err)
	}
	bareData, err := EncodeEvent(bare)
	if err != nil {
		t.Fatalf("EncodeEvent(bare) failed: %v", err)
	}

	if len(bareData) >= len(fullData) {
		t.Errorf("bare event (%d bytes) not smaller than full event (%d bytes)",
			len(bareData), len(fullData))
	}
}

func TestEncoderDecoderStreaming(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	ops := []Op{OpCreated, OpSubscribe, OpUpdate, OpUnsubscribe, OpEvicted}
	for _, op := range ops {
		if err := enc.Encode(Event{Timestamp: time.Now(), RecordID: "r", Op: op}); err != nil {
			t.Fatalf("Encode(%v) failed: %v", op, err)
		}
	}

	dec := NewDecoder(&buf)
	for i, want := range ops {
		var event Event
		if err := dec.Decode(&event); err != nil {
			t.Fatalf("Decode event %d failed: %v", i, err)
		}
		if event.Op != want {
			t.Errorf("event %d Op = %v, want %v", i, event.Op, want)
		}
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpCreated, "CREATED"},
		{OpSubscribe, "SUBSCRIBE"},
		{OpUnsubscribe, "UNSUBSCRIBE"},
		{OpUpdate, "UPDATE"},
		{OpEvictionScheduled, "EVICTION_SCHEDULED"},
		{OpEvictionCanceled, "EVICTION_CANCELED"},
		{OpEvicted, "EVICTED"},
		{OpRemoved, "REMOVED"},
		{OpError, "ERROR"},
		{Op(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
