package static

import (
    "strings"

    "github.com/amirimatin/go-schemacheck/pkg/discovery"
)

type staticTargets struct {
    targets []string
}

func (s *staticTargets) Targets() []string { return append([]string(nil), s.targets...) }

// New returns a Discovery that always returns the given targets, cleaned
// and de-duplicated.
func New(targets ...string) discovery.Discovery {
    return &staticTargets{targets: discovery.Clean(targets)}
}

// Parse splits a comma-separated target list, e.g. "db1,db2:19042".
func Parse(csv string) []string {
    if strings.TrimSpace(csv) == "" { return nil }
    return discovery.Clean(strings.Split(csv, ","))
}
