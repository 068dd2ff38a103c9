package journal

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// journalEncMode is the CBOR encoder mode for journal events.
// Configured for nanosecond-precision timestamps and deterministic encoding.
var journalEncMode cbor.EncMode

// journalDecMode is the CBOR decoder mode for journal events.
var journalDecMode cbor.DecMode

func init() {
	var err error

	// Configure encoder for journal events
	// Uses RFC3339Nano for nanosecond-precision timestamps
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano, // Nanosecond precision
	}
	journalEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create journal CBOR encoder mode: %v", err))
	}

	// Configure decoder for journal events.
	// Snapshots are decoded into map[string]any so they can be
	// re-encoded as JSON by analysis tools.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		DefaultMapType:    reflect.TypeOf(map[string]any(nil)),
	}
	journalDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create journal CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes using integer keys for compactness.
func EncodeEvent(event Event) ([]byte, error) {
	return journalEncMode.Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := journalDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder creates a CBOR encoder for journal events that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return journalEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for journal events that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return journalDecMode.NewDecoder(r)
}
