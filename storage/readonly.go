package storage

import (
	"context"
	"log/slog"

	"github.com/hdlnet/hdlproxy/handle"
	"github.com/hdlnet/hdlproxy/handle/hdlvalue"
)

// Implements Admin by refusing every operation. Each call is logged and returns ErrNotImplemented; nothing is modified.
type ReadOnlyAdmin struct {
	Logger *slog.Logger
}

var _ Admin = (*ReadOnlyAdmin)(nil)

func (a *ReadOnlyAdmin) unsupported(ctx context.Context, op string, args ...any) error {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "called unsupported storage operation", append([]any{"op", op}, args...)...)
	storageOps.WithLabelValues(op, "unsupported").Inc()
	return ErrNotImplemented
}

func (a *ReadOnlyAdmin) SetHaveNA(ctx context.Context, prefix handle.Prefix, haveIt bool) error {
	return a.unsupported(ctx, "setHaveNA", "prefix", prefix, "haveIt", haveIt)
}

func (a *ReadOnlyAdmin) CreateHandle(ctx context.Context, h handle.Handle, values []*hdlvalue.Value) error {
	return a.unsupported(ctx, "createHandle", "handle", h, "values", len(values))
}

func (a *ReadOnlyAdmin) UpdateValue(ctx context.Context, h handle.Handle, values []*hdlvalue.Value) error {
	return a.unsupported(ctx, "updateValue", "handle", h, "values", len(values))
}

func (a *ReadOnlyAdmin) DeleteHandle(ctx context.Context, h handle.Handle) (bool, error) {
	return false, a.unsupported(ctx, "deleteHandle", "handle", h)
}

func (a *ReadOnlyAdmin) DeleteAllRecords(ctx context.Context) error {
	return a.unsupported(ctx, "deleteAllRecords")
}

func (a *ReadOnlyAdmin) CheckpointDatabase(ctx context.Context) error {
	return a.unsupported(ctx, "checkpointDatabase")
}

func (a *ReadOnlyAdmin) ScanHandles(ctx context.Context, cb func(handle.Handle) error) error {
	return a.unsupported(ctx, "scanHandles")
}

func (a *ReadOnlyAdmin) ScanNAs(ctx context.Context, cb func(handle.Handle) error) error {
	return a.unsupported(ctx, "scanNAs")
}
