package rcstack

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openfga/pstack/internal/build"
)

var (
	nodesAllocatedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "arena_nodes_allocated_total",
		Help:      "The total number of nodes allocated by prepend across all arenas.",
	})

	nodesReleasedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "arena_nodes_released_total",
		Help:      "The total number of nodes reclaimed because their reference count reached zero.",
	})

	releaseChainLengthHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: build.ProjectName,
		Name:      "arena_release_chain_length",
		Help:      "The number of nodes reclaimed by a single release of a stack handle.",
		Buckets:   []float64{0, 1, 4, 16, 64, 256, 1024, 4096, 16384, 65536},
	})
)
