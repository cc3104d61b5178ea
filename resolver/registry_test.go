package resolver

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/hdlnet/hdlproxy/handle"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	assert := assert.New(t)

	var empty *Registry
	_, ok := empty.Lookup("10673")
	assert.False(ok)
	assert.Equal(0, empty.Len())

	reg := NewRegistry(
		Entry{Prefix: "10673", Endpoint: "http://repo1/x"},
		Entry{Prefix: "123", Endpoint: "http://repo1/x"},
		Entry{Prefix: "123", Endpoint: "http://repo2/x"},
	)
	assert.Equal(2, reg.Len())

	e, ok := reg.Lookup("10673")
	assert.True(ok)
	assert.Equal("http://repo1/x", e)

	// later entry wins
	e, ok = reg.Lookup("123")
	assert.True(ok)
	assert.Equal("http://repo2/x", e)

	// exact, case-sensitive match only
	assert.False(reg.Has("1067"))
	assert.False(reg.Has("10673/1"))
	assert.True(reg.Has("10673"))

	assert.Equal([]handle.Prefix{"10673", "123"}, reg.Prefixes())
	assert.Equal([]Entry{
		{Prefix: "10673", Endpoint: "http://repo1/x"},
		{Prefix: "123", Endpoint: "http://repo2/x"},
	}, reg.Entries())
}

// Concurrent readers while the registry is swapped must always see one whole generation: every prefix of a generation maps to that generation's endpoint.
func TestRegistryReplaceConcurrent(t *testing.T) {
	res := NewResolver(nil, nil, nil)

	build := func(gen int) *Registry {
		entries := []Entry{}
		for i := 0; i < 20; i++ {
			entries = append(entries, Entry{
				Prefix:   handle.Prefix(fmt.Sprintf("%d", i)),
				Endpoint: fmt.Sprintf("http://repo/gen%d", gen),
			})
		}
		return NewRegistry(entries...)
	}
	res.Replace(build(0))

	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 4

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				reg := res.Registry()
				first, ok := reg.Lookup("0")
				if !ok {
					t.Errorf("prefix missing from registry generation")
					return
				}
				for _, e := range reg.Entries() {
					if e.Endpoint != first {
						t.Errorf("mixed registry generations: %s vs %s", e.Endpoint, first)
						return
					}
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for gen := 1; gen < 200; gen++ {
			res.Replace(build(gen))
		}
	}()

	wg.Wait()
	assert.Equal(t, 20, res.Registry().Len())
}
