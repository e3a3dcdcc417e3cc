package discovery

import (
    "fmt"
    "net"
    "strconv"
    "strings"
)

// Discovery provides the contact hosts the watch monitor checks, as "host"
// or "host:port" strings. Each entry is one vantage point into a cluster.
type Discovery interface {
    Targets() []string
}

// SplitTarget parses "host", "host:port", "[v6]:port" or a bare IPv6
// address, filling in defaultPort when none is given.
func SplitTarget(target string, defaultPort int) (string, int, error) {
    target = strings.TrimSpace(target)
    if target == "" { return "", 0, fmt.Errorf("discovery: empty target") }
    if ip := net.ParseIP(strings.Trim(target, "[]")); ip != nil {
        return ip.String(), defaultPort, nil
    }
    if !strings.Contains(target, ":") { return target, defaultPort, nil }
    host, p, err := net.SplitHostPort(target)
    if err != nil { return "", 0, fmt.Errorf("discovery: bad target %q: %w", target, err) }
    port, err := strconv.Atoi(p)
    if err != nil || port <= 0 || port > 65535 { return "", 0, fmt.Errorf("discovery: bad port in %q", target) }
    return host, port, nil
}

// Clean trims entries, drops blanks and '#' comments, and removes
// duplicates while preserving first-seen order.
func Clean(in []string) []string {
    seen := make(map[string]struct{}, len(in))
    out := make([]string, 0, len(in))
    for _, v := range in {
        if i := strings.Index(v, "#"); i >= 0 { v = v[:i] }
        v = strings.TrimSpace(v)
        if v == "" { continue }
        if _, ok := seen[v]; ok { continue }
        seen[v] = struct{}{}
        out = append(out, v)
    }
    return out
}
