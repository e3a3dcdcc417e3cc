package dns

import (
    "context"
    "errors"
    "fmt"
    "net"
    "strings"

    "github.com/amirimatin/go-schemacheck/pkg/session"
)

// ErrNoAddress is returned when a lookup succeeds but yields no usable address.
var ErrNoAddress = errors.New("dns: no address found")

// Lookuper is the subset of *net.Resolver used for resolution.
type Lookuper interface {
    LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
    LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// Options configures contact point resolution.
type Options struct {
    // Resolver optionally overrides the DNS resolver used.
    Resolver Lookuper
}

// Resolver turns a human-supplied host into exactly one contact point.
type Resolver struct {
    opts Options
}

// New returns a Resolver. A nil opts.Resolver uses net.DefaultResolver.
func New(opts Options) *Resolver {
    if opts.Resolver == nil { opts.Resolver = net.DefaultResolver }
    return &Resolver{opts: opts}
}

// Resolve returns the first address host resolves to, paired with port.
// Literal IPs pass through. Names shaped like "_service._proto.domain" are
// looked up as SRV records: the first target is used and its advertised
// port replaces port. There is no retry and no fallback to further
// addresses.
func (r *Resolver) Resolve(ctx context.Context, host string, port int) (session.ContactPoint, error) {
    host = strings.TrimSpace(host)
    if host == "" { return session.ContactPoint{}, errors.New("dns: empty host") }
    if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
        return session.ContactPoint{Host: host, IP: ip, Port: port}, nil
    }
    if strings.HasPrefix(host, "_") && strings.Contains(host, "._") {
        svc, proto, domain := parseSRVName(host)
        if svc != "" && proto != "" && domain != "" {
            _, recs, err := r.opts.Resolver.LookupSRV(ctx, svc, proto, domain)
            if err != nil { return session.ContactPoint{}, err }
            if len(recs) == 0 { return session.ContactPoint{}, fmt.Errorf("%w for %s", ErrNoAddress, host) }
            target := strings.TrimSuffix(recs[0].Target, ".")
            ip, err := r.firstIP(ctx, target)
            if err != nil { return session.ContactPoint{}, err }
            return session.ContactPoint{Host: host, IP: ip, Port: int(recs[0].Port)}, nil
        }
    }
    ip, err := r.firstIP(ctx, host)
    if err != nil { return session.ContactPoint{}, err }
    return session.ContactPoint{Host: host, IP: ip, Port: port}, nil
}

func (r *Resolver) firstIP(ctx context.Context, host string) (net.IP, error) {
    if ip := net.ParseIP(host); ip != nil { return ip, nil }
    addrs, err := r.opts.Resolver.LookupIPAddr(ctx, host)
    if err != nil { return nil, err }
    if len(addrs) == 0 { return nil, fmt.Errorf("%w for %s", ErrNoAddress, host) }
    return addrs[0].IP, nil
}

func parseSRVName(fqdn string) (service, proto, name string) {
    // Expect pattern: _service._proto.name
    parts := strings.SplitN(fqdn, ".", 3)
    if len(parts) < 3 { return "", "", "" }
    s := strings.TrimPrefix(parts[0], "_")
    p := strings.TrimPrefix(parts[1], "_")
    n := parts[2]
    return s, p, n
}
