package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hdlnet/hdlproxy/handle"
	"github.com/hdlnet/hdlproxy/handle/hdlvalue"
	"github.com/hdlnet/hdlproxy/resolver"
)

// The subset of [resolver.Resolver] used by ProxyStorage.
type HandleResolver interface {
	Refresh(ctx context.Context) error
	Resolve(ctx context.Context, h handle.Handle) (*hdlvalue.Value, error)
	ListHandles(ctx context.Context, prefix handle.Prefix) ([]handle.Handle, error)
	HaveNA(prefix handle.Prefix) bool
}

var _ HandleResolver = (*resolver.Resolver)(nil)

// Read-only HandleStorage which resolves handles against remote repositories.
type ProxyStorage struct {
	ReadOnlyAdmin

	Resolver HandleResolver
	Logger   *slog.Logger
}

var _ HandleStorage = (*ProxyStorage)(nil)

func NewProxyStorage(res HandleResolver, logger *slog.Logger) *ProxyStorage {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "storage")
	return &ProxyStorage{
		ReadOnlyAdmin: ReadOnlyAdmin{Logger: logger},
		Resolver:      res,
		Logger:        logger,
	}
}

func (s *ProxyStorage) Init(ctx context.Context) error {
	s.Logger.Info("initializing handle storage")
	if err := s.Resolver.Refresh(ctx); err != nil {
		return fmt.Errorf("unable to reach any configured repository: %w", err)
	}
	return nil
}

func (s *ProxyStorage) Shutdown() error {
	s.Logger.Info("called shutdown")
	return nil
}

func (s *ProxyStorage) GetRawHandleValues(ctx context.Context, h handle.Handle, indexList []int, typeList [][]byte) ([][]byte, error) {
	if h == "" {
		storageOps.WithLabelValues("getRawHandleValues", "error").Inc()
		return nil, ErrInternal
	}
	val, err := s.Resolver.Resolve(ctx, h)
	if errors.Is(err, resolver.ErrHandleNotFound) {
		storageOps.WithLabelValues("getRawHandleValues", "notfound").Inc()
		return nil, ErrHandleDoesNotExist
	} else if err != nil {
		s.Logger.Debug("handle resolution failed", "handle", h, "err", err)
		storageOps.WithLabelValues("getRawHandleValues", "error").Inc()
		return nil, ErrInternal
	}
	storageOps.WithLabelValues("getRawHandleValues", "success").Inc()
	return [][]byte{val.Encode()}, nil
}

func (s *ProxyStorage) HaveNA(ctx context.Context, naHandle string) (bool, error) {
	prefix, err := handle.ParseNAHandle(naHandle)
	if err != nil {
		s.Logger.Debug("unparsable naming authority handle", "naHandle", naHandle, "err", err)
		return false, nil
	}
	storageOps.WithLabelValues("haveNA", "success").Inc()
	return s.Resolver.HaveNA(prefix), nil
}

func (s *ProxyStorage) GetHandlesForNA(ctx context.Context, naHandle string) ([]handle.Handle, error) {
	prefix, err := handle.ParseNAHandle(naHandle)
	if err != nil {
		s.Logger.Debug("unparsable naming authority handle", "naHandle", naHandle, "err", err)
		return []handle.Handle{}, nil
	}
	handles, err := s.Resolver.ListHandles(ctx, prefix)
	if err != nil {
		storageOps.WithLabelValues("getHandlesForNA", "error").Inc()
		return nil, ErrInternal
	}
	storageOps.WithLabelValues("getHandlesForNA", "success").Inc()
	return handles, nil
}
