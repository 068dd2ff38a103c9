package record

import (
	"reflect"
)

// valuesEqual compares two attribute values for structural equality.
// Comparable scalar types are checked directly; everything else falls
// back to reflect-based deep comparison, so slices, maps, and nested
// structures with equal contents compare equal.
func valuesEqual[V any](a, b V) bool {
	// Direct comparison for comparable types
	switch av := any(a).(type) {
	case nil:
		return any(b) == nil
	case int64:
		if bv, ok := any(b).(int64); ok {
			return av == bv
		}
	case int32:
		if bv, ok := any(b).(int32); ok {
			return av == bv
		}
	case int:
		if bv, ok := any(b).(int); ok {
			return av == bv
		}
	case uint64:
		if bv, ok := any(b).(uint64); ok {
			return av == bv
		}
	case uint32:
		if bv, ok := any(b).(uint32); ok {
			return av == bv
		}
	case uint:
		if bv, ok := any(b).(uint); ok {
			return av == bv
		}
	case float64:
		if bv, ok := any(b).(float64); ok {
			return av == bv
		}
	case float32:
		if bv, ok := any(b).(float32); ok {
			return av == bv
		}
	case string:
		if bv, ok := any(b).(string); ok {
			return av == bv
		}
	case bool:
		if bv, ok := any(b).(bool); ok {
			return av == bv
		}
	}

	return reflect.DeepEqual(a, b)
}
