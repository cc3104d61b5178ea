// Package remote is a client for the read-only JSON API exposed by each handle repository.
//
// Each repository is identified by a base URL (the "endpoint"), and exposes three routes relative to it:
//
//	GET {endpoint}/listprefixes          -> ["10673", ...]
//	GET {endpoint}/listhandles/{prefix}  -> ["10673/1", "10673/2", ...]
//	GET {endpoint}/resolve/{handle}      -> ["https://example.org/item/1"] or [null]
package remote

import (
	"context"
	"errors"

	"github.com/hdlnet/hdlproxy/handle"
)

// Interface for querying remote handle repositories. Implementations must be safe for concurrent use.
type Client interface {
	// Returns the prefixes owned by the repository at endpoint. A null or empty response body returns an empty slice and no error.
	ListPrefixes(ctx context.Context, endpoint string) ([]handle.Prefix, error)
	// Returns every handle under the prefix, in the order the repository sent them. A null or empty response body returns an empty slice and no error.
	ListHandles(ctx context.Context, endpoint string, prefix handle.Prefix) ([]handle.Handle, error)
	// Returns the raw candidate list for a handle. Elements may be nil (JSON null). Use [FirstCandidate] to interpret it.
	Resolve(ctx context.Context, endpoint string, h handle.Handle) ([]*string, error)
}

// Indicates that a request to a remote repository failed: bad endpoint URL, network error, unexpected HTTP status, or a response body which could not be parsed. A wrapped error provides more context.
var ErrRequestFailed = errors.New("remote repository request failed")

// Takes element 0 of a resolve response. Returns false if the list is empty or the first element is null.
//
// The repository API returns a list so that multiple values could be represented in the future, but only the first candidate is ever used.
func FirstCandidate(candidates []*string) (string, bool) {
	if len(candidates) == 0 || candidates[0] == nil {
		return "", false
	}
	return *candidates[0], true
}
