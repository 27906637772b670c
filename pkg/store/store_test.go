package store_test

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssrkit/ssrkit/pkg/gql"
	"github.com/ssrkit/ssrkit/pkg/store"
)

type counter struct {
	Count int `json:"count"`
}

func counterSlice() store.Slice {
	return store.NewSlice(counter{}, func(s counter, a store.Action) counter {
		switch a.Type {
		case "INCREMENT_COUNTER":
			s.Count++
		case "SET_COUNTER":
			s.Count = a.Payload.(int)
		}
		return s
	})
}

func todoSlice() store.Slice {
	return store.NewSliceFunc(func() []string { return []string{} }, func(s []string, a store.Action) []string {
		if a.Type == "ADD_TODO" {
			return append(append([]string(nil), s...), a.Payload.(string))
		}
		return s
	})
}

func cachedClient(t *testing.T) *gql.Client {
	t.Helper()
	c := gql.NewClient(gql.TransportFunc(func(ctx context.Context, req *gql.Request) (*gql.Result, error) {
		return &gql.Result{Data: json.RawMessage(`{"message":{"text":"hi"}}`)}, nil
	}))
	_, err := c.Query(context.Background(), &gql.Request{Query: "{ message { text } }"})
	require.NoError(t, err)
	return c
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestStateHasRegisteredSlicesPlusReserved(t *testing.T) {
	tests := []struct {
		name   string
		slices map[string]store.Slice
		want   []string
	}{
		{"none", map[string]store.Slice{}, []string{"gql"}},
		{"one", map[string]store.Slice{"counter": counterSlice()}, []string{"counter", "gql"}},
		{"two", map[string]store.Slice{"counter": counterSlice(), "todos": todoSlice()}, []string{"counter", "gql", "todos"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := store.New(gql.NewClient(nil), tt.slices)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(s.GetState()))
		})
	}

	s, err := store.New(nil, map[string]store.Slice{"counter": counterSlice()})
	require.NoError(t, err)
	assert.Equal(t, []string{"counter", "gql"}, keys(s.GetState()))
}

func TestReservedSliceRejected(t *testing.T) {
	_, err := store.New(nil, map[string]store.Slice{store.ReservedSlice: counterSlice()})
	assert.ErrorIs(t, err, store.ErrReservedSlice)

	_, err = store.New(nil, map[string]store.Slice{"nil": nil})
	assert.Error(t, err)
}

func TestNewSliceRequiresReducer(t *testing.T) {
	assert.PanicsWithValue(t, "store: reducer must not be nil", func() {
		store.NewSlice(0, nil)
	})
	assert.PanicsWithValue(t, "store: initial state func must not be nil", func() {
		store.NewSliceFunc[int](nil, func(n int, _ store.Action) int { return n })
	})
}

func TestNewSliceFuncFreshInitialPerStore(t *testing.T) {
	tags := store.NewSliceFunc(func() map[string]bool { return map[string]bool{} },
		func(s map[string]bool, a store.Action) map[string]bool {
			s[a.Payload.(string)] = true
			return s
		})
	slices := map[string]store.Slice{"tags": tags}

	first, err := store.New(nil, slices)
	require.NoError(t, err)
	second, err := store.New(nil, slices)
	require.NoError(t, err)

	first.Dispatch(store.Action{Type: "TAG", Payload: "private"})

	got, _ := second.Get("tags")
	assert.Empty(t, got, "second store sees state from the first")
}

func TestDispatch(t *testing.T) {
	s, err := store.New(nil, map[string]store.Slice{"counter": counterSlice(), "todos": todoSlice()})
	require.NoError(t, err)

	var notified int
	unsubscribe := s.Subscribe(func() { notified++ })

	s.Dispatch(store.Action{Type: "INCREMENT_COUNTER"})
	s.Dispatch(store.Action{Type: "ADD_TODO", Payload: "write tests"})
	unsubscribe()
	s.Dispatch(store.Action{Type: "INCREMENT_COUNTER"})

	got, ok := s.Get("counter")
	require.True(t, ok)
	assert.Equal(t, counter{Count: 2}, got)

	todos, _ := s.Get("todos")
	assert.Equal(t, []string{"write tests"}, todos)
	assert.Equal(t, 2, notified)
	assert.Equal(t, []string{"counter", "todos"}, s.Names())
}

func TestMiddlewareOrder(t *testing.T) {
	var trace []string
	mw := func(name string) store.Middleware {
		return func(s *store.Store, next store.Dispatcher) store.Dispatcher {
			return func(a store.Action) {
				trace = append(trace, name+":"+a.Type)
				next(a)
			}
		}
	}
	thunk := func(s *store.Store, next store.Dispatcher) store.Dispatcher {
		return func(a store.Action) {
			if a.Type == "RESET" {
				s.Dispatch(store.Action{Type: "SET_COUNTER", Payload: 0})
				return
			}
			next(a)
		}
	}

	s, err := store.New(nil, map[string]store.Slice{"counter": counterSlice()},
		store.WithMiddleware(mw("outer"), mw("inner"), thunk))
	require.NoError(t, err)

	s.Dispatch(store.Action{Type: "INCREMENT_COUNTER"})
	s.Dispatch(store.Action{Type: "RESET"})

	assert.Equal(t, []string{
		"outer:INCREMENT_COUNTER", "inner:INCREMENT_COUNTER",
		"outer:RESET", "inner:RESET",
		"outer:SET_COUNTER", "inner:SET_COUNTER",
	}, trace)
	got, _ := s.Get("counter")
	assert.Equal(t, counter{Count: 0}, got)
}

func TestRehydrationRoundTrip(t *testing.T) {
	slices := map[string]store.Slice{"counter": counterSlice(), "todos": todoSlice()}

	first, err := store.New(cachedClient(t), slices)
	require.NoError(t, err)
	first.Dispatch(store.Action{Type: "INCREMENT_COUNTER"})
	first.Dispatch(store.Action{Type: "ADD_TODO", Payload: "a"})

	env, err := first.Snapshot()
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	parsed, err := store.ParseEnvelope(data)
	require.NoError(t, err)

	client := gql.NewClient(nil)
	second, err := store.New(client, slices, store.WithEnvelope(parsed))
	require.NoError(t, err)

	again, err := second.Snapshot()
	require.NoError(t, err)
	require.Len(t, again, len(env))
	for name, raw := range env {
		assert.JSONEq(t, string(raw), string(again[name]), "slice %s", name)
	}

	_, ok := client.Cached(&gql.Request{Query: "{ message { text } }"})
	assert.True(t, ok, "reserved slice should be restored into the client")
}

func TestRehydrationFallsBackToInitial(t *testing.T) {
	env := store.Envelope{"counter": json.RawMessage(`{"count":7}`)}
	s, err := store.New(nil, map[string]store.Slice{"counter": counterSlice(), "todos": todoSlice()},
		store.WithEnvelope(env))
	require.NoError(t, err)

	c, _ := s.Get("counter")
	assert.Equal(t, counter{Count: 7}, c)
	todos, _ := s.Get("todos")
	assert.Equal(t, []string{}, todos)
}

func TestRehydrationErrors(t *testing.T) {
	_, err := store.New(nil, map[string]store.Slice{"counter": counterSlice()},
		store.WithEnvelope(store.Envelope{"counter": json.RawMessage(`"nope"`)}))
	assert.Error(t, err)

	_, err = store.New(gql.NewClient(nil), nil,
		store.WithEnvelope(store.Envelope{store.ReservedSlice: json.RawMessage(`[]`)}))
	assert.Error(t, err)

	_, err = store.ParseEnvelope([]byte("{"))
	assert.Error(t, err)
}
