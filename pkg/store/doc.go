// Package store is the reducer-based state container built for every
// request.
//
// State is a set of named slices, each a typed value plus a reducer:
//
//	counter := store.NewSlice(Counter{}, func(s Counter, a store.Action) Counter {
//	    if a.Type == "INCREMENT_COUNTER" {
//	        s.Count++
//	    }
//	    return s
//	})
//	st, err := store.New(client, map[string]store.Slice{"counter": counter})
//
// The key ReservedSlice belongs to the GraphQL client cache and cannot be
// registered. Snapshot produces the Envelope embedded in the page, and
// WithEnvelope rehydrates a store from it.
package store
