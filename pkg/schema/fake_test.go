package schema

import (
    "context"
    "errors"
    "net"
    "sync"

    "github.com/amirimatin/go-schemacheck/pkg/session"
)

type fakeResolver struct {
    err   error
    calls int
}

func (r *fakeResolver) Resolve(_ context.Context, host string, port int) (session.ContactPoint, error) {
    r.calls++
    if r.err != nil { return session.ContactPoint{}, r.err }
    return session.ContactPoint{IP: net.ParseIP("10.0.0.1"), Port: port}, nil
}

// fakeDialer serves canned rows per statement and counts session lifecycles.
type fakeDialer struct {
    mu        sync.Mutex
    peers     []session.Row
    local     []session.Row
    peerErr   error
    localErr  error
    dialErr   error
    blockLocal bool

    dials   int
    open    int
    configs []session.Config
    stmts   []string
}

func (d *fakeDialer) Dial(_ context.Context, cp session.ContactPoint, cfg session.Config) (session.Session, error) {
    d.mu.Lock()
    defer d.mu.Unlock()
    d.configs = append(d.configs, cfg)
    if d.dialErr != nil { return nil, d.dialErr }
    d.dials++
    d.open++
    return &fakeSession{d: d}, nil
}

func (d *fakeDialer) openSessions() int {
    d.mu.Lock()
    defer d.mu.Unlock()
    return d.open
}

type fakeSession struct {
    d      *fakeDialer
    closed bool
}

func (s *fakeSession) Query(ctx context.Context, stmt string, _ ...interface{}) ([]session.Row, error) {
    s.d.mu.Lock()
    s.d.stmts = append(s.d.stmts, stmt)
    s.d.mu.Unlock()
    switch stmt {
    case SelectPeers:
        return s.d.peers, s.d.peerErr
    case SelectLocal:
        if s.d.blockLocal {
            <-ctx.Done()
            return nil, ctx.Err()
        }
        return s.d.local, s.d.localErr
    }
    return nil, errors.New("unexpected statement")
}

func (s *fakeSession) Close() {
    s.d.mu.Lock()
    defer s.d.mu.Unlock()
    if !s.closed {
        s.closed = true
        s.d.open--
    }
}

func peerRow(addr, version string) session.Row {
    return session.Row{"peer": net.ParseIP(addr), "rpc_address": net.ParseIP(addr), "schema_version": version}
}

func localRow(addr, version string) session.Row {
    return session.Row{"rpc_address": net.ParseIP(addr), "schema_version": version}
}

type fakeProbe struct{ down map[string]bool }

func (p fakeProbe) Alive(_ context.Context, addr string) bool { return !p.down[addr] }
