package watch

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net"
    "sort"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/sirupsen/logrus"
    "golang.org/x/sync/errgroup"

    "github.com/amirimatin/go-schemacheck/pkg/discovery"
    "github.com/amirimatin/go-schemacheck/pkg/internal/logutil"
    obsmetrics "github.com/amirimatin/go-schemacheck/pkg/observability/metrics"
    "github.com/amirimatin/go-schemacheck/pkg/observability/tracing"
    "github.com/amirimatin/go-schemacheck/pkg/schema"
    "github.com/amirimatin/go-schemacheck/pkg/transport"
)

var ErrStopped = errors.New("watch: monitor stopped")

// Monitor periodically checks schema agreement on every discovered target,
// keeps the latest outcome per target and publishes state transitions.
type Monitor struct {
    opts Options
    log  logrus.FieldLogger

    mu  sync.RWMutex
    run struct {
        started bool
        closed  bool
        cancel  context.CancelFunc
        done    chan struct{}
    }
    last     map[string]TargetStatus
    rounds   uint64

    eb eventBus
}

// New constructs a Monitor from validated options. It performs no network
// activity; call Start to begin checking.
func New(opts Options) (*Monitor, error) {
    if err := opts.Validate(); err != nil { return nil, err }
    opts = opts.withDefaults()
    return &Monitor{opts: opts, log: logutil.Component(opts.Logger, "watch"), last: make(map[string]TargetStatus)}, nil
}

// Start runs one round immediately, then one every Interval until ctx is
// done or Stop is called. The management endpoint is started when configured.
func (m *Monitor) Start(ctx context.Context) error {
    m.mu.Lock()
    if m.run.closed {
        m.mu.Unlock()
        return ErrStopped
    }
    if m.run.started {
        m.mu.Unlock()
        return nil
    }
    m.run.started = true
    obsmetrics.Register()
    loopCtx, cancel := context.WithCancel(ctx)
    done := make(chan struct{})
    m.run.cancel, m.run.done = cancel, done
    m.mu.Unlock()

    if m.opts.RPCServer != nil {
        if err := m.opts.RPCServer.Start(ctx, m.StatusJSON, m.CheckOnce); err != nil {
            cancel()
            m.mu.Lock()
            m.run.started, m.run.cancel, m.run.done = false, nil, nil
            m.mu.Unlock()
            return err
        }
        logutil.Infof(m.log, "management endpoint listening at %s (status/check/metrics/healthz)", m.opts.RPCServer.Addr())
    }
    go m.loop(loopCtx, done)
    return nil
}

// Run starts the monitor and blocks until ctx is done, then stops it.
func (m *Monitor) Run(ctx context.Context) error {
    if err := m.Start(ctx); err != nil { return err }
    <-ctx.Done()
    stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    return m.Stop(stopCtx)
}

// Stop halts the check loop and the management endpoint. It is idempotent.
func (m *Monitor) Stop(ctx context.Context) error {
    m.mu.Lock()
    if m.run.closed {
        m.mu.Unlock()
        return nil
    }
    m.run.closed = true
    cancel, done := m.run.cancel, m.run.done
    m.mu.Unlock()

    if cancel != nil {
        cancel()
        select {
        case <-done:
        case <-ctx.Done():
            return ctx.Err()
        }
    }
    if m.opts.RPCServer != nil { _ = m.opts.RPCServer.Stop(ctx) }
    return nil
}

// Close is a convenience alias for Stop with a background context.
func (m *Monitor) Close() error { return m.Stop(context.Background()) }

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
    defer close(done)
    m.RunOnce(ctx)
    t := time.NewTicker(m.opts.Interval)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-t.C:
            m.RunOnce(ctx)
        }
    }
}

// RunOnce checks every current target once, at most Parallelism at a time,
// and returns the outcomes sorted by target. Targets no longer discovered are
// dropped from the status and their gauges removed.
func (m *Monitor) RunOnce(ctx context.Context) []TargetStatus {
    ctx, end := tracing.StartSpan(ctx, "watch.round")
    defer end()
    targets := discovery.Clean(m.opts.Discovery.Targets())
    if len(targets) == 0 { logutil.Warnf(m.log, "no targets discovered") }

    out := make([]TargetStatus, len(targets))
    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(m.opts.Parallelism)
    for i, target := range targets {
        i, target := i, target
        g.Go(func() error {
            out[i] = m.CheckTarget(gctx, target)
            return nil
        })
    }
    _ = g.Wait()
    m.prune(targets)

    m.mu.Lock()
    m.rounds++
    m.mu.Unlock()
    sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
    return out
}

// CheckTarget checks a single "host[:port]" target, records the outcome and
// publishes any resulting transition.
func (m *Monitor) CheckTarget(ctx context.Context, target string) TargetStatus {
    st := TargetStatus{Target: target, CheckedAt: time.Now()}
    host, port, err := discovery.SplitTarget(target, m.opts.DefaultPort)
    if err != nil {
        st.Error, st.ErrorKind = err.Error(), "other"
        m.record(st)
        return st
    }
    res, err := m.opts.Checker.Check(ctx, host, port, m.opts.CheckOptions)
    st.Duration = time.Since(st.CheckedAt)
    if err != nil {
        st.Error, st.ErrorKind = err.Error(), schema.ErrorKind(err)
        logutil.Warnf(m.log, "check %s failed: %v", target, err)
    } else {
        st.Agrees = res.Agrees
        st.Versions = res.Versions
        st.Distinct = res.Versions.Distinct()
        obsmetrics.ObserveTarget(target, res.Agrees, len(st.Distinct), len(res.Versions))
        if !res.Agrees { logutil.Warnf(m.log, "schema disagreement on %s: %v", target, res.Versions.Groups()) }
    }
    m.record(st)
    return st
}

// prune forgets every recorded target not in current.
func (m *Monitor) prune(current []string) {
    keep := make(map[string]struct{}, len(current))
    for _, t := range current { keep[t] = struct{}{} }
    var gone []string
    m.mu.Lock()
    for t := range m.last {
        if _, ok := keep[t]; !ok {
            delete(m.last, t)
            gone = append(gone, t)
        }
    }
    m.mu.Unlock()
    for _, t := range gone {
        obsmetrics.ForgetTarget(t)
        logutil.Infof(m.log, "target %s no longer discovered; forgetting it", t)
    }
}

func (m *Monitor) record(st TargetStatus) {
    m.mu.Lock()
    var prev *TargetStatus
    if p, ok := m.last[st.Target]; ok { prev = &p }
    m.last[st.Target] = st
    m.mu.Unlock()

    typ, ok := transition(prev, st)
    if !ok { return }
    ev := Event{Type: typ, At: st.CheckedAt, Status: st}
    logutil.Infof(m.log, "target %s: %s", st.Target, typ)
    m.eb.publish(ev)
    if m.opts.OnEvent != nil { m.opts.OnEvent(ev) }
}

// Status returns the latest outcome of every target checked so far.
func (m *Monitor) Status() Snapshot {
    m.mu.RLock()
    defer m.mu.RUnlock()
    s := Snapshot{Healthy: len(m.last) > 0, Rounds: m.rounds, Targets: make([]TargetStatus, 0, len(m.last))}
    for _, st := range m.last {
        if !st.OK() { s.Healthy = false }
        s.Targets = append(s.Targets, st)
    }
    sort.Slice(s.Targets, func(i, j int) bool { return s.Targets[i].Target < s.Targets[j].Target })
    if len(s.Targets) == 0 { s.Warnings = append(s.Warnings, "no targets checked yet") }
    return s
}

// StatusJSON serves the status endpoint.
func (m *Monitor) StatusJSON(ctx context.Context) ([]byte, error) {
    return json.Marshal(m.Status())
}

// CheckOnce serves on-demand checks from the management endpoint. A failed
// check is reported in the response; only malformed requests return an error.
func (m *Monitor) CheckOnce(ctx context.Context, req transport.CheckRequest) (transport.CheckResponse, error) {
    if strings.TrimSpace(req.Host) == "" { return transport.CheckResponse{}, errors.New("watch: empty host") }
    if req.Port < 0 || req.Port > 65535 { return transport.CheckResponse{}, errors.New("watch: invalid port") }
    port := req.Port
    if port == 0 { port = m.opts.DefaultPort }
    host, hostPort, err := discovery.SplitTarget(req.Host, port)
    if err != nil { return transport.CheckResponse{}, err }
    if req.Port != 0 && hostPort != req.Port {
        return transport.CheckResponse{}, fmt.Errorf("watch: host %q conflicts with port %d", req.Host, req.Port)
    }
    st := m.CheckTarget(ctx, net.JoinHostPort(host, strconv.Itoa(hostPort)))
    return transport.CheckResponse{
        Target:    st.Target,
        Agrees:    st.Agrees,
        Versions:  st.Versions,
        Error:     st.Error,
        ErrorKind: st.ErrorKind,
    }, nil
}
