package remote

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hdlnet/hdlproxy/handle"
)

// A fake set of remote repositories, for use in tests. Counts every call, so tests can assert that no request was made.
type MockClient struct {
	mu       sync.RWMutex
	Prefixes map[string][]handle.Prefix
	Handles  map[string]map[handle.Prefix][]handle.Handle
	// resolve answers per endpoint, exactly as the repository would send them
	Locations map[string]map[handle.Handle][]*string
	// endpoints which fail every request with this error
	Failures map[string]error

	calls atomic.Int64
}

var _ Client = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{
		Prefixes:  make(map[string][]handle.Prefix),
		Handles:   make(map[string]map[handle.Prefix][]handle.Handle),
		Locations: make(map[string]map[handle.Handle][]*string),
		Failures:  make(map[string]error),
	}
}

// Registers a repository at endpoint owning the given prefixes.
func (c *MockClient) AddRepository(endpoint string, prefixes ...handle.Prefix) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Prefixes[endpoint] = append(c.Prefixes[endpoint], prefixes...)
}

// Adds a handle to a repository, resolving to location. A nil location makes the repository answer `[null]` for it.
func (c *MockClient) InsertHandle(endpoint string, h handle.Handle, location *string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Handles[endpoint] == nil {
		c.Handles[endpoint] = make(map[handle.Prefix][]handle.Handle)
	}
	c.Handles[endpoint][h.Prefix()] = append(c.Handles[endpoint][h.Prefix()], h)
	if c.Locations[endpoint] == nil {
		c.Locations[endpoint] = make(map[handle.Handle][]*string)
	}
	c.Locations[endpoint][h] = []*string{location}
}

// Makes every request to endpoint fail.
func (c *MockClient) Fail(endpoint string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Failures[endpoint] = err
}

// Total number of requests issued against the mock.
func (c *MockClient) Calls() int64 {
	return c.calls.Load()
}

func (c *MockClient) failure(endpoint string) error {
	if err, ok := c.Failures[endpoint]; ok {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return nil
}

func (c *MockClient) ListPrefixes(ctx context.Context, endpoint string) ([]handle.Prefix, error) {
	c.calls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.failure(endpoint); err != nil {
		return nil, err
	}
	prefixes, ok := c.Prefixes[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: no repository at %s", ErrRequestFailed, endpoint)
	}
	return append([]handle.Prefix{}, prefixes...), nil
}

func (c *MockClient) ListHandles(ctx context.Context, endpoint string, prefix handle.Prefix) ([]handle.Handle, error) {
	c.calls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.failure(endpoint); err != nil {
		return nil, err
	}
	return append([]handle.Handle{}, c.Handles[endpoint][prefix]...), nil
}

func (c *MockClient) Resolve(ctx context.Context, endpoint string, h handle.Handle) ([]*string, error) {
	c.calls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.failure(endpoint); err != nil {
		return nil, err
	}
	// unknown handles get an empty list, like a repository which has never heard of them
	return c.Locations[endpoint][h], nil
}
