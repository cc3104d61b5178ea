package resolver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hdlnet/hdlproxy/handle"
	"github.com/hdlnet/hdlproxy/remote"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Indicates that no configured repository contributed any prefix. The caller decides whether to continue degraded or abort.
var ErrRegistryEmpty = errors.New("no prefixes loaded from any configured repository")

// max number of concurrent list-prefixes requests during a load
const loadParallelism = 8

type prefixListing struct {
	endpoint string
	prefixes []handle.Prefix
	err      error
}

// Queries every endpoint for the prefixes it owns, and builds a Registry from the answers.
//
// Endpoints are queried concurrently, but answers are merged in the order of the endpoints slice, so when two repositories claim the same prefix the later endpoint deterministically wins (and a warning is logged). An endpoint which can not be reached, or answers with anything other than a JSON list of prefixes, is logged and skipped.
//
// If the resulting registry is empty, it is returned along with ErrRegistryEmpty.
func LoadRegistry(ctx context.Context, client remote.Client, endpoints []string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, span := tracer.Start(ctx, "LoadRegistry", trace.WithAttributes(attribute.Int("endpoints", len(endpoints))))
	defer span.End()
	start := time.Now()

	listings := make([]prefixListing, len(endpoints))
	var g errgroup.Group
	g.SetLimit(loadParallelism)
	for i, endpoint := range endpoints {
		g.Go(func() error {
			prefixes, err := client.ListPrefixes(ctx, endpoint)
			listings[i] = prefixListing{endpoint: endpoint, prefixes: prefixes, err: err}
			// failures are per-endpoint, and never abort the group
			return nil
		})
	}
	_ = g.Wait()

	owners := make(map[handle.Prefix]string)
	entries := []Entry{}
	for _, l := range listings {
		if l.err != nil {
			logger.Warn("error while loading prefixes from repository, ignoring", "endpoint", l.endpoint, "err", l.err)
			registryEndpointLoads.WithLabelValues("error").Inc()
			continue
		}
		if len(l.prefixes) == 0 {
			logger.Warn("repository returned empty prefix list", "endpoint", l.endpoint)
			registryEndpointLoads.WithLabelValues("empty").Inc()
			continue
		}
		registryEndpointLoads.WithLabelValues("success").Inc()
		for _, p := range l.prefixes {
			if prev, ok := owners[p]; ok && prev != l.endpoint {
				logger.Warn("prefix claimed by multiple repositories, last one wins", "prefix", p, "previous", prev, "endpoint", l.endpoint)
			}
			owners[p] = l.endpoint
			entries = append(entries, Entry{Prefix: p, Endpoint: l.endpoint})
			logger.Debug("mapping prefix to repository", "prefix", p, "endpoint", l.endpoint)
		}
	}

	reg := NewRegistry(entries...)
	registryLoadDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("prefixes", reg.Len()))
	if reg.Len() == 0 {
		logger.Error("unable to load any prefix from configured repositories", "endpoints", len(endpoints))
		return reg, ErrRegistryEmpty
	}
	return reg, nil
}
