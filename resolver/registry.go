package resolver

import (
	"sort"

	"github.com/hdlnet/hdlproxy/handle"
)

// A single prefix ownership claim.
type Entry struct {
	Prefix   handle.Prefix `json:"prefix"`
	Endpoint string        `json:"endpoint"`
}

// Immutable mapping from prefix to the endpoint of the repository which owns it.
//
// A Registry is never modified after construction, so it is safe for any number of concurrent readers. Refreshing builds a new Registry which is published as a whole (see [Resolver.Replace]).
type Registry struct {
	endpoints map[handle.Prefix]string
}

// Builds a registry from entries, in order. If two entries claim the same prefix, the later one wins.
func NewRegistry(entries ...Entry) *Registry {
	m := make(map[handle.Prefix]string, len(entries))
	for _, e := range entries {
		m[e.Prefix] = e.Endpoint
	}
	return &Registry{endpoints: m}
}

// Returns the endpoint registered for prefix, if any.
func (r *Registry) Lookup(prefix handle.Prefix) (string, bool) {
	if r == nil {
		return "", false
	}
	e, ok := r.endpoints[prefix]
	return e, ok
}

func (r *Registry) Has(prefix handle.Prefix) bool {
	_, ok := r.Lookup(prefix)
	return ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.endpoints)
}

// Sorted list of registered prefixes.
func (r *Registry) Prefixes() []handle.Prefix {
	if r == nil {
		return nil
	}
	out := make([]handle.Prefix, 0, len(r.endpoints))
	for p := range r.endpoints {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot of all entries, sorted by prefix. For diagnostics.
func (r *Registry) Entries() []Entry {
	prefixes := r.Prefixes()
	out := make([]Entry, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, Entry{Prefix: p, Endpoint: r.endpoints[p]})
	}
	return out
}
