package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var handleResolution = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hdlproxy_resolve_handle",
	Help: "Handle resolutions, by outcome",
}, []string{"outcome"})

var handleResolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "hdlproxy_resolve_handle_duration",
	Help:    "Time to resolve a handle",
	Buckets: prometheus.ExponentialBucketsRange(0.0001, 2, 20),
}, []string{"outcome"})

var handleListing = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hdlproxy_list_handles",
	Help: "Naming authority handle listings",
}, []string{"status"})

var registryPrefixes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "hdlproxy_registry_prefixes",
	Help: "Number of prefixes in the current registry",
})

var registryLoads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hdlproxy_registry_loads",
	Help: "Registry loads and refreshes",
}, []string{"status"})

var registryEndpointLoads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hdlproxy_registry_endpoint_loads",
	Help: "Per-repository prefix listings during registry loads",
}, []string{"status"})

var registryLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "hdlproxy_registry_load_duration",
	Help:    "Time to load the prefix registry from all repositories",
	Buckets: prometheus.ExponentialBucketsRange(0.001, 60, 20),
})
