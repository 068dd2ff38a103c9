// Package mirror provides per-component views over canonical records.
//
// # Models
//
// A Model is a component's live copy of one record. It attaches with
// a freshly minted handle, primes itself from the record snapshot, and
// from then on tracks the record through incoming broadcasts:
//
//	m := mirror.NewModel(rec)
//	m.OnChange(func(snapshot record.Attrs[any]) {
//		// react to changes made elsewhere
//	})
//	m.Set(record.Attrs[any]{"name": "alice"})
//
// Writes go through the model: Set and Unset apply to the local copy
// first and then push to the record with the model's handle as the
// originator. The record never echoes a change back to its originator,
// which is why the model self-applies and why OnChange fires only for
// changes made by others.
//
// A model converges on the record state carried by the latest
// broadcast. During a broadcast the local copy may briefly trail the
// record; the next broadcast replaces it wholesale.
//
// # Collections
//
// A Collection holds the models of one record class in attach order,
// drawing records from a shared cache:
//
//	users := mirror.NewCollection("user", c)
//	alice := users.Attach("1")
//	users.DetachAll()
//
// Attaching an id twice returns the same model. Two collections over
// the same cache share canonical records, so a write through one is
// observed by the other.
package mirror
