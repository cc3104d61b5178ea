// Package storage adapts a Resolver to the handle-server storage interface: a small read capability, plus an explicitly inert set of administrative operations.
package storage

import (
	"context"
	"errors"

	"github.com/hdlnet/hdlproxy/handle"
	"github.com/hdlnet/hdlproxy/handle/hdlvalue"
)

// The handle does not exist. Never returned for a failed lookup; see ErrInternal.
var ErrHandleDoesNotExist = errors.New("handle does not exist")

// Generic resolution failure. Carries no detail about the underlying cause.
var ErrInternal = errors.New("internal error")

// Returned by every administrative or write operation. The storage is read-only, and these calls never modify any state.
var ErrNotImplemented = errors.New("operation not implemented: storage is read-only")

// Read operations which the proxy actually implements.
type Reader interface {
	// Returns the encoded values of a handle (currently always a single URL value). indexList and typeList are accepted for interface compatibility and ignored.
	GetRawHandleValues(ctx context.Context, h handle.Handle, indexList []int, typeList [][]byte) ([][]byte, error)
	// Reports whether the naming authority ("0.NA/<prefix>", or a bare prefix) is served here.
	HaveNA(ctx context.Context, naHandle string) (bool, error)
	// Lists every handle under the naming authority ("0.NA/<prefix>", or a bare prefix).
	GetHandlesForNA(ctx context.Context, naHandle string) ([]handle.Handle, error)
}

// Administrative and write operations. None are supported.
type Admin interface {
	SetHaveNA(ctx context.Context, prefix handle.Prefix, haveIt bool) error
	CreateHandle(ctx context.Context, h handle.Handle, values []*hdlvalue.Value) error
	UpdateValue(ctx context.Context, h handle.Handle, values []*hdlvalue.Value) error
	DeleteHandle(ctx context.Context, h handle.Handle) (bool, error)
	DeleteAllRecords(ctx context.Context) error
	CheckpointDatabase(ctx context.Context) error
	ScanHandles(ctx context.Context, cb func(handle.Handle) error) error
	ScanNAs(ctx context.Context, cb func(handle.Handle) error) error
}

// Full storage interface expected by a handle-server host.
type HandleStorage interface {
	Reader
	Admin
	// Loads the prefix registry. Returns an error wrapping the load failure if no prefix could be loaded; the host decides whether that is fatal.
	Init(ctx context.Context) error
	Shutdown() error
}
