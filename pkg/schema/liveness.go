package schema

import (
    "context"
    "net"
    "strconv"
    "sync"
    "time"

    "golang.org/x/sync/errgroup"
)

// TCPProbe considers a peer alive when its native transport port accepts a
// TCP connection within Timeout.
type TCPProbe struct {
    Port    int
    Timeout time.Duration
}

// Alive implements LivenessProbe.
func (p TCPProbe) Alive(ctx context.Context, addr string) bool {
    port := p.Port
    if port <= 0 { port = DefaultPort }
    timeout := p.Timeout
    if timeout <= 0 { timeout = 2 * time.Second }
    d := net.Dialer{Timeout: timeout}
    conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
    if err != nil { return false }
    _ = conn.Close()
    return true
}

const probeParallelism = 8

// filterLive splits peers into those the probe reports alive and those it
// does not.
func filterLive(ctx context.Context, peers VersionMap, probe LivenessProbe) (alive, dropped VersionMap) {
    var mu sync.Mutex
    alive, dropped = make(VersionMap, len(peers)), make(VersionMap)
    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(probeParallelism)
    for addr, v := range peers {
        addr, v := addr, v
        g.Go(func() error {
            ok := probe.Alive(gctx, addr)
            mu.Lock()
            if ok { alive[addr] = v } else { dropped[addr] = v }
            mu.Unlock()
            return nil
        })
    }
    _ = g.Wait()
    return alive, dropped
}
