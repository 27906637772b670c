package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ReservedSlice is the state key owned by the data-fetching client.
const ReservedSlice = "gql"

// ErrReservedSlice is returned when a registered slice uses ReservedSlice.
var ErrReservedSlice = errors.New("store: slice name is reserved for the GraphQL cache")

// Envelope is the serialized state embedded in a rendered page.
type Envelope map[string]json.RawMessage

// ParseEnvelope decodes a serialized envelope.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("store: parse envelope: %w", err)
	}
	return env, nil
}

// Source owns the reserved slice. *gql.Client implements it.
type Source interface {
	ExtractState() any
	RestoreState(raw json.RawMessage) error
}

// Dispatcher sends an action through the store.
type Dispatcher func(a Action)

// Middleware wraps dispatch. Call next to continue the chain.
type Middleware func(s *Store, next Dispatcher) Dispatcher

// Option configures a Store.
type Option func(*options)

type options struct {
	envelope   Envelope
	middleware []Middleware
}

// WithEnvelope rehydrates the store from a previous render.
func WithEnvelope(env Envelope) Option {
	return func(o *options) {
		o.envelope = env
	}
}

// WithMiddleware adds dispatch middleware, outermost first.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}

// Store is a request-scoped state container.
type Store struct {
	source Source
	slices map[string]Slice
	names  []string

	mu       sync.RWMutex
	state    map[string]any
	subs     map[int]func()
	nextSub  int
	dispatch Dispatcher
}

// New builds a store from the registered slices. source may be nil when
// no data-fetching client is attached.
func New(source Source, slices map[string]Slice, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		source: source,
		slices: make(map[string]Slice, len(slices)),
		state:  make(map[string]any, len(slices)),
		subs:   make(map[int]func()),
	}

	for name, slice := range slices {
		if name == ReservedSlice {
			return nil, ErrReservedSlice
		}
		if slice == nil {
			return nil, fmt.Errorf("store: slice %q is nil", name)
		}
		s.slices[name] = slice
		s.names = append(s.names, name)

		value := slice.Initial()
		if raw, ok := o.envelope[name]; ok {
			decoded, err := slice.Decode(raw)
			if err != nil {
				return nil, fmt.Errorf("store: rehydrate %q: %w", name, err)
			}
			value = decoded
		}
		s.state[name] = value
	}
	sort.Strings(s.names)

	if raw, ok := o.envelope[ReservedSlice]; ok && source != nil {
		if err := source.RestoreState(raw); err != nil {
			return nil, fmt.Errorf("store: rehydrate %q: %w", ReservedSlice, err)
		}
	}

	s.dispatch = s.reduce
	for i := len(o.middleware) - 1; i >= 0; i-- {
		s.dispatch = o.middleware[i](s, s.dispatch)
	}

	return s, nil
}

// Names returns the registered slice names in sorted order.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// Get returns the current value of one slice.
func (s *Store) Get(name string) (any, bool) {
	if name == ReservedSlice {
		if s.source == nil {
			return nil, false
		}
		return s.source.ExtractState(), true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[name]
	return v, ok
}

// GetState returns the registered slices plus the reserved slice.
func (s *Store) GetState() map[string]any {
	s.mu.RLock()
	out := make(map[string]any, len(s.state)+1)
	for k, v := range s.state {
		out[k] = v
	}
	s.mu.RUnlock()

	if s.source != nil {
		out[ReservedSlice] = s.source.ExtractState()
	} else {
		out[ReservedSlice] = map[string]any{}
	}
	return out
}

// Dispatch sends a through the middleware chain to every reducer, then
// notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.dispatch(a)
}

func (s *Store) reduce(a Action) {
	s.mu.Lock()
	for _, name := range s.names {
		s.state[name] = s.slices[name].Reduce(s.state[name], a)
	}
	subs := make([]func(), 0, len(s.subs))
	keys := make([]int, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		subs = append(subs, s.subs[k])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Subscribe registers fn to run after every dispatch. The returned
// function removes it.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Snapshot serializes the full state.
func (s *Store) Snapshot() (Envelope, error) {
	state := s.GetState()
	env := make(Envelope, len(state))
	for name, v := range state {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("store: serialize %q: %w", name, err)
		}
		env[name] = raw
	}
	return env, nil
}
