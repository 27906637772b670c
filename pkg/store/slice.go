package store

import (
	"encoding/json"
	"fmt"
)

// Action describes a state change.
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Slice is one named part of the state with its reducer.
type Slice interface {
	// Initial returns the value the slice starts from when nothing was
	// rehydrated.
	Initial() any

	// Reduce returns the next state. It must not mutate state.
	Reduce(state any, a Action) any

	// Decode restores a serialized value of this slice.
	Decode(raw json.RawMessage) (any, error)
}

type typedSlice[S any] struct {
	initial func() S
	reducer func(S, Action) S
}

// NewSlice creates a Slice whose state has type S. Every store starts from
// the same initial value, so reference types such as maps and slices are
// shared between requests; use NewSliceFunc for those. It panics if reducer
// is nil.
func NewSlice[S any](initial S, reducer func(state S, a Action) S) Slice {
	return NewSliceFunc(func() S { return initial }, reducer)
}

// NewSliceFunc is like NewSlice but calls initial for every new store.
func NewSliceFunc[S any](initial func() S, reducer func(state S, a Action) S) Slice {
	if initial == nil {
		panic("store: initial state func must not be nil")
	}
	if reducer == nil {
		panic("store: reducer must not be nil")
	}
	return &typedSlice[S]{initial: initial, reducer: reducer}
}

func (s *typedSlice[S]) Initial() any {
	return s.initial()
}

func (s *typedSlice[S]) Reduce(state any, a Action) any {
	typed, ok := state.(S)
	if !ok {
		typed = s.initial()
	}
	return s.reducer(typed, a)
}

func (s *typedSlice[S]) Decode(raw json.RawMessage) (any, error) {
	var v S
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}
