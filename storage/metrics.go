package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storageOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hdlproxy_storage_ops",
	Help: "Storage interface calls, by operation and status",
}, []string{"op", "status"})
