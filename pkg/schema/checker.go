package schema

import (
    "context"
    "time"

    "github.com/sirupsen/logrus"
    "golang.org/x/sync/errgroup"

    "github.com/amirimatin/go-schemacheck/pkg/discovery/dns"
    "github.com/amirimatin/go-schemacheck/pkg/internal/logutil"
    obsmetrics "github.com/amirimatin/go-schemacheck/pkg/observability/metrics"
    "github.com/amirimatin/go-schemacheck/pkg/observability/tracing"
    "github.com/amirimatin/go-schemacheck/pkg/session"
)

const (
    SelectPeers = `SELECT peer, rpc_address, schema_version FROM system.peers`
    SelectLocal = `SELECT rpc_address, schema_version FROM system.local WHERE key='local'`
)

// ContactResolver turns a host into a single contact point.
type ContactResolver interface {
    Resolve(ctx context.Context, host string, port int) (session.ContactPoint, error)
}

// CheckerOptions wires the collaborators of a Checker. Zero values select
// DNS resolution and the gocql driver.
type CheckerOptions struct {
    Resolver ContactResolver
    Dialer   session.Dialer
    Logger   logrus.FieldLogger
}

// Checker runs schema agreement checks. It holds no per-check state and is
// safe for concurrent use.
type Checker struct {
    resolver ContactResolver
    dialer   session.Dialer
    log      logrus.FieldLogger
}

// New returns a Checker.
func New(opts CheckerOptions) *Checker {
    if opts.Resolver == nil { opts.Resolver = dns.New(dns.Options{}) }
    if opts.Dialer == nil { opts.Dialer = session.GocqlDialer{} }
    return &Checker{resolver: opts.Resolver, dialer: opts.Dialer, log: logutil.Component(opts.Logger, "checker")}
}

// CheckSchemaAgreement checks host:port with a default Checker.
func CheckSchemaAgreement(ctx context.Context, host string, port int, opts Options) (*AgreementResult, error) {
    return New(CheckerOptions{}).Check(ctx, host, port, opts)
}

// Check queries the node at host:port for its own and its peers' schema
// versions and reports whether they all agree. A port of 0 selects
// DefaultPort. On failure no partial result is returned.
func (c *Checker) Check(ctx context.Context, host string, port int, opts Options) (*AgreementResult, error) {
    start := time.Now()
    ctx, end := tracing.StartSpan(ctx, "schema.check", "host", host)
    defer end()
    versions, skipped, err := c.collect(ctx, host, port, opts)
    obsmetrics.CheckDuration.Observe(time.Since(start).Seconds())
    if err != nil {
        tracing.RecordError(ctx, err)
        obsmetrics.ChecksTotal.WithLabelValues("error").Inc()
        obsmetrics.CheckErrors.WithLabelValues(ErrorKind(err)).Inc()
        return nil, err
    }
    res := Evaluate(versions)
    if len(skipped) > 0 { res.Skipped = skipped }
    if res.Agrees {
        obsmetrics.ChecksTotal.WithLabelValues("agree").Inc()
    } else {
        obsmetrics.ChecksTotal.WithLabelValues("disagree").Inc()
        c.log.WithField("host", host).Debugf("schema disagreement: %v", versions.Groups())
    }
    return &res, nil
}

// Versions resolves host and returns the merged node->version map.
// Peers dropped by opts.Liveness are left out.
func (c *Checker) Versions(ctx context.Context, host string, port int, opts Options) (VersionMap, error) {
    versions, _, err := c.collect(ctx, host, port, opts)
    return versions, err
}

// collect returns the merged versions and the peers the liveness filter
// dropped from them.
func (c *Checker) collect(ctx context.Context, host string, port int, opts Options) (VersionMap, VersionMap, error) {
    if err := opts.Validate(); err != nil { return nil, nil, err }
    opts = opts.withDefaults()
    if port <= 0 { port = DefaultPort }

    cp, err := c.resolve(ctx, host, port)
    if err != nil { return nil, nil, err }

    var peers, skipped, local VersionMap
    if opts.Concurrent {
        g, gctx := errgroup.WithContext(ctx)
        g.Go(func() error {
            var err error
            peers, skipped, err = c.peerVersions(gctx, cp, opts)
            return err
        })
        g.Go(func() error {
            var err error
            local, err = c.LocalVersion(gctx, cp, opts)
            return err
        })
        if err := g.Wait(); err != nil { return nil, nil, err }
    } else {
        if peers, skipped, err = c.peerVersions(ctx, cp, opts); err != nil { return nil, nil, err }
        if local, err = c.LocalVersion(ctx, cp, opts); err != nil { return nil, nil, err }
    }
    if len(skipped) > 0 && len(peers) == 0 {
        return nil, nil, &UnreachableError{Host: cp.Host, Addr: cp.String(), Dropped: skipped}
    }
    return Merge(peers, local), skipped, nil
}

func (c *Checker) resolve(ctx context.Context, host string, port int) (session.ContactPoint, error) {
    ctx, end := tracing.StartSpan(ctx, "schema.resolve", "host", host)
    defer end()
    cp, err := c.resolver.Resolve(ctx, host, port)
    if err != nil {
        tracing.RecordError(ctx, err)
        return cp, &ResolutionError{Host: host, Err: err}
    }
    if cp.Host == "" { cp.Host = host }
    c.log.WithField("host", host).Debugf("resolved contact point %s", cp)
    return cp, nil
}

// PeerVersions reads the contacted node's cached view of its peers' schema
// versions, keyed by each peer's client address. Peers the node believes are
// down are still reported unless opts.Liveness filters them.
func (c *Checker) PeerVersions(ctx context.Context, cp session.ContactPoint, opts Options) (VersionMap, error) {
    peers, _, err := c.peerVersions(ctx, cp, opts)
    return peers, err
}

func (c *Checker) peerVersions(ctx context.Context, cp session.ContactPoint, opts Options) (VersionMap, VersionMap, error) {
    ctx, end := tracing.StartSpan(ctx, "schema.peers", "addr", cp.String())
    defer end()
    var rows []session.Row
    err := c.withSession(ctx, cp, opts, func(s session.Session) error {
        var err error
        rows, err = s.Query(ctx, SelectPeers)
        if err != nil { return &QueryError{Host: cp.Host, Addr: cp.String(), Stmt: SelectPeers, Err: err} }
        return nil
    })
    if err != nil {
        tracing.RecordError(ctx, err)
        return nil, nil, err
    }
    peers := make(VersionMap, len(rows))
    for _, row := range rows {
        addr, ok := nodeAddress(row["rpc_address"])
        if !ok { addr, ok = nodeAddress(row["peer"]) }
        if !ok {
            logutil.Warnf(c.log, "skipping peer row without address from %s", cp)
            continue
        }
        peers[addr] = NormalizeToken(row["schema_version"])
    }
    if opts.Liveness == nil { return peers, nil, nil }
    alive, dropped := filterLive(ctx, peers, opts.Liveness)
    for _, addr := range dropped.Addresses() {
        logutil.Warnf(c.log, "dropping peer %s (schema version %q) listed by %s: not reachable from this host", addr, dropped[addr], cp.Label())
    }
    return alive, dropped, nil
}

// LocalVersion reads the contacted node's own address and schema version.
// The local record must hold exactly one row.
func (c *Checker) LocalVersion(ctx context.Context, cp session.ContactPoint, opts Options) (VersionMap, error) {
    ctx, end := tracing.StartSpan(ctx, "schema.local", "addr", cp.String())
    defer end()
    var rows []session.Row
    err := c.withSession(ctx, cp, opts, func(s session.Session) error {
        var err error
        rows, err = s.Query(ctx, SelectLocal)
        if err != nil { return &QueryError{Host: cp.Host, Addr: cp.String(), Stmt: SelectLocal, Err: err} }
        if len(rows) != 1 { return &AcquisitionError{Host: cp.Host, Addr: cp.String(), Rows: len(rows)} }
        return nil
    })
    if err != nil {
        tracing.RecordError(ctx, err)
        return nil, err
    }
    addr, ok := nodeAddress(rows[0]["rpc_address"])
    if !ok { addr = cp.IP.String() }
    return VersionMap{addr: NormalizeToken(rows[0]["schema_version"])}, nil
}

// withSession opens a session pinned to cp, runs fn and always closes the
// session before returning.
func (c *Checker) withSession(ctx context.Context, cp session.ContactPoint, opts Options, fn func(session.Session) error) error {
    cfg, err := opts.sessionConfig()
    if err != nil { return &ConnectionError{Host: cp.Host, Addr: cp.String(), Err: err} }
    s, err := c.dialer.Dial(ctx, cp, cfg)
    if err != nil { return &ConnectionError{Host: cp.Host, Addr: cp.String(), Err: err} }
    obsmetrics.SessionDials.Inc()
    obsmetrics.SessionsOpen.Inc()
    defer func() {
        s.Close()
        obsmetrics.SessionsOpen.Dec()
    }()
    return fn(s)
}
