package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var remoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hdlproxy_remote_requests",
	Help: "Requests to remote handle repositories",
}, []string{"op", "status"})

var remoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "hdlproxy_remote_request_duration",
	Help:    "Time for a remote handle repository request",
	Buckets: prometheus.ExponentialBucketsRange(0.0001, 2, 20),
}, []string{"op", "status"})
