package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hdlnet/hdlproxy/handle"
	"github.com/hdlnet/hdlproxy/handle/hdlvalue"
	"github.com/hdlnet/hdlproxy/remote"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Indicates that resolution completed, and the handle does not exist: either no repository owns its prefix, or the owning repository has no location for it.
var ErrHandleNotFound = errors.New("handle not found")

// Indicates that resolution or listing could not complete, because of a network, status, or parsing failure talking to the owning repository. The underlying cause is logged, not wrapped.
var ErrResolutionFailed = errors.New("handle resolution failed")

var tracer = otel.Tracer("hdlproxy/resolver")

// Routes resolution requests to the repository owning each prefix.
//
// The zero value is not usable; construct with [NewResolver]. All methods are safe for concurrent use. The registry starts out empty until [Resolver.Refresh] (or [Resolver.Replace]) is called.
type Resolver struct {
	Client    remote.Client
	Endpoints []string
	Logger    *slog.Logger

	registry atomic.Pointer[Registry]
}

func NewResolver(client remote.Client, endpoints []string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		Client:    client,
		Endpoints: endpoints,
		Logger:    logger.With("component", "resolver"),
	}
	r.registry.Store(NewRegistry())
	return r
}

// The current registry snapshot.
func (r *Resolver) Registry() *Registry {
	return r.registry.Load()
}

// Atomically publishes a new registry. Concurrent lookups see either the old or the new registry, never a mix.
func (r *Resolver) Replace(reg *Registry) {
	if reg == nil {
		reg = NewRegistry()
	}
	r.registry.Store(reg)
	registryPrefixes.Set(float64(reg.Len()))
}

// Re-runs the registry load against all configured endpoints, and publishes the result.
//
// If no prefixes at all could be loaded, returns ErrRegistryEmpty and keeps the current registry, so that a temporary outage of every repository does not discard a working registry.
func (r *Resolver) Refresh(ctx context.Context) error {
	reg, err := LoadRegistry(ctx, r.Client, r.Endpoints, r.Logger)
	if err != nil {
		registryLoads.WithLabelValues("error").Inc()
		if prev := r.Registry(); prev.Len() > 0 {
			r.Logger.Warn("registry refresh found no prefixes, keeping previous registry", "prefixes", prev.Len())
		}
		return err
	}
	registryLoads.WithLabelValues("success").Inc()
	r.Replace(reg)
	for _, e := range reg.Entries() {
		r.Logger.Info("loaded prefix", "prefix", e.Prefix, "endpoint", e.Endpoint)
	}
	return nil
}

// Resolves a handle to a freshly built URL value (see [hdlvalue.NewURLValue]).
func (r *Resolver) Resolve(ctx context.Context, h handle.Handle) (*hdlvalue.Value, error) {
	loc, err := r.ResolveLocation(ctx, h)
	if err != nil {
		return nil, err
	}
	return hdlvalue.NewURLValue(loc), nil
}

// Resolves a handle to its location string.
//
// Returns ErrHandleNotFound if the prefix is unregistered (without any network request) or the owning repository has no location for the handle, and ErrResolutionFailed for any failure talking to the repository. Requests are not retried.
func (r *Resolver) ResolveLocation(ctx context.Context, h handle.Handle) (string, error) {
	ctx, span := tracer.Start(ctx, "ResolveLocation", trace.WithAttributes(attribute.String("handle", h.String())))
	defer span.End()
	start := time.Now()

	loc, err := r.resolveLocation(ctx, h)

	outcome := Classify(err)
	handleResolution.WithLabelValues(outcome.String()).Inc()
	handleResolutionDuration.WithLabelValues(outcome.String()).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("outcome", outcome.String()))
	if outcome == OutcomeFailed {
		span.SetStatus(codes.Error, err.Error())
	}
	return loc, err
}

func (r *Resolver) resolveLocation(ctx context.Context, h handle.Handle) (string, error) {
	prefix := h.Prefix()
	endpoint, ok := r.Registry().Lookup(prefix)
	if !ok {
		r.Logger.Debug("no repository registered for prefix", "prefix", prefix, "handle", h)
		return "", ErrHandleNotFound
	}

	candidates, err := r.Client.Resolve(ctx, endpoint, h)
	if err != nil {
		r.Logger.Warn("remote handle resolution failed", "handle", h, "endpoint", endpoint, "err", err)
		return "", ErrResolutionFailed
	}
	loc, ok := remote.FirstCandidate(candidates)
	if !ok {
		r.Logger.Debug("repository has no location for handle", "handle", h, "endpoint", endpoint)
		return "", ErrHandleNotFound
	}
	r.Logger.Debug("resolved handle", "handle", h, "endpoint", endpoint, "location", loc)
	return loc, nil
}

// Lists all handles under a naming authority, in the order the owning repository returned them.
//
// An unregistered prefix returns an empty list without any network request. Any failure talking to the repository returns ErrResolutionFailed, which callers must treat as "unable to enumerate", not as an empty authority.
func (r *Resolver) ListHandles(ctx context.Context, prefix handle.Prefix) ([]handle.Handle, error) {
	ctx, span := tracer.Start(ctx, "ListHandles", trace.WithAttributes(attribute.String("prefix", prefix.String())))
	defer span.End()

	endpoint, ok := r.Registry().Lookup(prefix)
	if !ok {
		r.Logger.Debug("no repository registered for prefix, empty listing", "prefix", prefix)
		handleListing.WithLabelValues("unknown").Inc()
		return []handle.Handle{}, nil
	}

	handles, err := r.Client.ListHandles(ctx, endpoint, prefix)
	if err != nil {
		r.Logger.Warn("remote handle listing failed", "prefix", prefix, "endpoint", endpoint, "err", err)
		handleListing.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, ErrResolutionFailed
	}
	handleListing.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int("handles", len(handles)))
	if handles == nil {
		handles = []handle.Handle{}
	}
	return handles, nil
}

// Reports whether any configured repository has claimed this prefix. Answered from the registry alone, with no network request.
func (r *Resolver) HaveNA(prefix handle.Prefix) bool {
	return r.Registry().Has(prefix)
}
