package metrics

import (
    "testing"

    "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIdempotent(t *testing.T) {
    Register()
    Register()
}

func TestObserveTarget(t *testing.T) {
    ObserveTarget("10.0.0.1:9042", true, 1, 3)
    if got := testutil.ToFloat64(Agreement.WithLabelValues("10.0.0.1:9042")); got != 1 { t.Fatalf("agreement = %v", got) }
    if got := testutil.ToFloat64(Nodes.WithLabelValues("10.0.0.1:9042")); got != 3 { t.Fatalf("nodes = %v", got) }

    ObserveTarget("10.0.0.1:9042", false, 2, 3)
    if got := testutil.ToFloat64(Agreement.WithLabelValues("10.0.0.1:9042")); got != 0 { t.Fatalf("agreement = %v", got) }
    if got := testutil.ToFloat64(DistinctVersions.WithLabelValues("10.0.0.1:9042")); got != 2 { t.Fatalf("distinct = %v", got) }
}

func TestForgetTarget(t *testing.T) {
    ObserveTarget("forget-me:9042", true, 1, 2)
    ForgetTarget("forget-me:9042")
    if Agreement.DeleteLabelValues("forget-me:9042") { t.Fatal("agreement gauge still present") }
    if DistinctVersions.DeleteLabelValues("forget-me:9042") { t.Fatal("distinct gauge still present") }
    if Nodes.DeleteLabelValues("forget-me:9042") { t.Fatal("nodes gauge still present") }
}
