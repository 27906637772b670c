package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is the serialized operation cache, keyed by Client.Key.
type Snapshot map[string]*Result

// Observer is notified after every operation that reached the transport.
type Observer func(ctx context.Context, operation string, d time.Duration, err error)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithObserver registers an operation observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observers = append(c.observers, o)
	}
}

// Client runs operations through a transport and caches their results.
// A Client belongs to a single request and is never shared.
type Client struct {
	transport Transport
	observers []Observer

	mu    sync.RWMutex
	cache map[string]*Result
}

// NewClient creates a client for transport.
func NewClient(transport Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport: transport,
		cache:     make(map[string]*Result),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the cache key of req. Variables are encoded with sorted keys
// so equal requests hash equally.
func (c *Client) Key(req *Request) string {
	raw, err := json.Marshal(req)
	if err != nil {
		raw = []byte(req.OperationName + "\x00" + req.Query)
	}
	return strconv.FormatUint(xxhash.Sum64(raw), 16)
}

// Cached returns the cached result for req, if any.
func (c *Client) Cached(req *Request) (*Result, bool) {
	key := c.Key(req)
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.cache[key]
	return res, ok
}

// Query returns the cached result for req or runs it and caches the
// result. Transport errors are returned and not cached.
func (c *Client) Query(ctx context.Context, req *Request) (*Result, error) {
	if res, ok := c.Cached(req); ok {
		return res, nil
	}
	res, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[c.Key(req)] = res
	c.mu.Unlock()
	return res, nil
}

// Mutate runs req without reading or writing the cache.
func (c *Client) Mutate(ctx context.Context, req *Request) (*Result, error) {
	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *Request) (*Result, error) {
	if c.transport == nil {
		return nil, ErrNoTransport
	}
	start := time.Now()
	res, err := c.transport.Do(ctx, req)
	for _, o := range c.observers {
		o(ctx, operationName(req), time.Since(start), err)
	}
	return res, err
}

// Extract returns a copy of the cache.
func (c *Client) Extract() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(Snapshot, len(c.cache))
	for k, v := range c.cache {
		out[k] = v
	}
	return out
}

// Restore merges s into the cache.
func (c *Client) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range s {
		if v != nil {
			c.cache[k] = v
		}
	}
}

// Reset empties the cache.
func (c *Client) Reset() {
	c.mu.Lock()
	c.cache = make(map[string]*Result)
	c.mu.Unlock()
}

// ExtractState returns the cache as a store slice value.
func (c *Client) ExtractState() any {
	return c.Extract()
}

// RestoreState rehydrates the cache from a serialized snapshot.
func (c *Client) RestoreState(raw json.RawMessage) error {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("gql: restore cache: %w", err)
	}
	c.Restore(s)
	return nil
}

func operationName(req *Request) string {
	if req.OperationName != "" {
		return req.OperationName
	}
	return "anonymous"
}
