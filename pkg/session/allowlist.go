package session

import (
    "net"

    "github.com/gocql/gocql"
)

// AllowList is a host filter that admits only explicitly listed contact
// points. The driver never routes a query to an address outside the list,
// even when it learns about other nodes through the cluster's own discovery.
type AllowList struct {
    points []ContactPoint
}

// NewAllowList returns a filter admitting exactly the given points.
func NewAllowList(points ...ContactPoint) AllowList {
    return AllowList{points: append([]ContactPoint(nil), points...)}
}

// Allows reports whether ip:port is listed. A zero port matches any port on
// a listed IP.
func (a AllowList) Allows(ip net.IP, port int) bool {
    for _, p := range a.points {
        if p.IP.Equal(ip) && (port == 0 || p.Port == port) {
            return true
        }
    }
    return false
}

// Accept implements gocql.HostFilter.
func (a AllowList) Accept(h *gocql.HostInfo) bool {
    if h == nil { return false }
    return a.Allows(h.ConnectAddress(), h.Port())
}

var _ gocql.HostFilter = AllowList{}
