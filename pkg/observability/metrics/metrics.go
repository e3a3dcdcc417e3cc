package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    ChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "schemacheck",
        Name:      "checks_total",
        Help:      "Total schema agreement checks by outcome (agree|disagree|error)",
    }, []string{"result"})

    CheckErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "schemacheck",
        Name:      "check_errors_total",
        Help:      "Failed checks by error kind (resolution|connection|query|acquisition)",
    }, []string{"kind"})

    CheckDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
        Namespace: "schemacheck",
        Name:      "check_duration_seconds",
        Help:      "Wall time of a full schema agreement check",
        Buckets:   prometheus.DefBuckets,
    })

    SessionDials = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "schemacheck",
        Subsystem: "session",
        Name:      "dials_total",
        Help:      "Total number of single-node sessions opened",
    })
    SessionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "schemacheck",
        Subsystem: "session",
        Name:      "open",
        Help:      "Number of sessions currently open (should return to 0 after each check)",
    })

    // Per-target gauges, maintained by the watch monitor.
    Agreement = prometheus.NewGaugeVec(prometheus.GaugeOpts{
        Namespace: "schemacheck",
        Name:      "agreement",
        Help:      "1 if the last check of the target agreed, else 0",
    }, []string{"target"})
    DistinctVersions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
        Namespace: "schemacheck",
        Name:      "distinct_versions",
        Help:      "Number of distinct schema versions observed on the last check",
    }, []string{"target"})
    Nodes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
        Namespace: "schemacheck",
        Name:      "nodes",
        Help:      "Number of nodes observed on the last check",
    }, []string{"target"})

    GRPCConnDials = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "schemacheck",
        Subsystem: "grpc_conn",
        Name:      "dials_total",
        Help:      "Total number of new gRPC connections dialed",
    })
    GRPCConnReuse = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "schemacheck",
        Subsystem: "grpc_conn",
        Name:      "reuse_total",
        Help:      "Total number of gRPC connection reuses from cache",
    })
    GRPCConnEvictions = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "schemacheck",
        Subsystem: "grpc_conn",
        Name:      "evictions_total",
        Help:      "Total number of cached gRPC connections evicted",
    })
    GRPCConnActive = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "schemacheck",
        Subsystem: "grpc_conn",
        Name:      "active",
        Help:      "Number of active cached gRPC connections",
    })
)

// Register registers metrics into the default Prometheus registry (idempotent).
func Register() {
    once.Do(func() {
        prometheus.MustRegister(ChecksTotal)
        prometheus.MustRegister(CheckErrors)
        prometheus.MustRegister(CheckDuration)
        prometheus.MustRegister(SessionDials)
        prometheus.MustRegister(SessionsOpen)
        prometheus.MustRegister(Agreement)
        prometheus.MustRegister(DistinctVersions)
        prometheus.MustRegister(Nodes)
        prometheus.MustRegister(GRPCConnDials)
        prometheus.MustRegister(GRPCConnReuse)
        prometheus.MustRegister(GRPCConnEvictions)
        prometheus.MustRegister(GRPCConnActive)
    })
}

// ForgetTarget removes the per-target gauges of a target no longer watched.
func ForgetTarget(target string) {
    Agreement.DeleteLabelValues(target)
    DistinctVersions.DeleteLabelValues(target)
    Nodes.DeleteLabelValues(target)
}

// ObserveTarget publishes the per-target gauges for one completed check.
func ObserveTarget(target string, agrees bool, distinct, nodes int) {
    v := 0.0
    if agrees { v = 1 }
    Agreement.WithLabelValues(target).Set(v)
    DistinctVersions.WithLabelValues(target).Set(float64(distinct))
    Nodes.WithLabelValues(target).Set(float64(nodes))
}
