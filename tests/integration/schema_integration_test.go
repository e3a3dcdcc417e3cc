//go:build integration

package integration

import (
    "context"
    "encoding/json"
    "errors"
    "os"
    "strconv"
    "testing"
    "time"

    "github.com/prometheus/client_golang/prometheus/testutil"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/amirimatin/go-schemacheck/pkg/discovery/static"
    obsmetrics "github.com/amirimatin/go-schemacheck/pkg/observability/metrics"
    "github.com/amirimatin/go-schemacheck/pkg/schema"
    "github.com/amirimatin/go-schemacheck/pkg/transport"
    mgmtgrpc "github.com/amirimatin/go-schemacheck/pkg/transport/grpc"
    "github.com/amirimatin/go-schemacheck/pkg/watch"
)

// target returns the live cluster described by SCHEMACHECK_IT_* or skips.
func target(t *testing.T) (string, int, schema.Options) {
    t.Helper()
    host := os.Getenv("SCHEMACHECK_IT_HOST")
    if host == "" { t.Skip("SCHEMACHECK_IT_HOST not set") }
    port := schema.DefaultPort
    if p := os.Getenv("SCHEMACHECK_IT_PORT"); p != "" {
        n, err := strconv.Atoi(p)
        require.NoError(t, err)
        port = n
    }
    user := os.Getenv("SCHEMACHECK_IT_USER")
    if user == "" { user = "cassandra" }
    pass := os.Getenv("SCHEMACHECK_IT_PASSWORD")
    if pass == "" { pass = "cassandra" }
    opts := schema.Options{
        Credentials: schema.Credentials{Username: user, Password: pass},
        WithoutTLS:  os.Getenv("SCHEMACHECK_IT_NO_TLS") == "1",
    }
    return host, port, opts
}

func TestLiveClusterAgrees(t *testing.T) {
    host, port, opts := target(t)
    ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
    defer cancel()

    res, err := schema.CheckSchemaAgreement(ctx, host, port, opts)
    require.NoError(t, err)
    assert.True(t, res.Agrees, "versions: %v", res.Versions.Groups())
    assert.NotEmpty(t, res.Versions)
    assert.Zero(t, testutil.ToFloat64(obsmetrics.SessionsOpen), "sessions leaked")
}

func TestLiveClusterConcurrent(t *testing.T) {
    host, port, opts := target(t)
    ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
    defer cancel()

    seq, err := schema.New(schema.CheckerOptions{}).Versions(ctx, host, port, opts)
    require.NoError(t, err)
    opts.Concurrent = true
    conc, err := schema.New(schema.CheckerOptions{}).Versions(ctx, host, port, opts)
    require.NoError(t, err)
    assert.Equal(t, seq.Addresses(), conc.Addresses())
}

func TestLiveWrongPasswordIsConnectionError(t *testing.T) {
    host, port, opts := target(t)
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    opts.Credentials.Password = "definitely-not-the-password"
    _, err := schema.CheckSchemaAgreement(ctx, host, port, opts)
    require.Error(t, err)
    assert.True(t, errors.Is(err, schema.ErrConnection), "got %v", err)
    assert.Zero(t, testutil.ToFloat64(obsmetrics.SessionsOpen))
}

func TestUnresolvableHost(t *testing.T) {
    _, _, opts := target(t)
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _, err := schema.CheckSchemaAgreement(ctx, "no-such-host.invalid", 0, opts)
    assert.ErrorIs(t, err, schema.ErrResolution)
}

func TestMonitorOverGRPC(t *testing.T) {
    host, port, opts := target(t)
    ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
    defer cancel()

    srv := mgmtgrpc.NewServer("127.0.0.1:0")
    m, err := watch.New(watch.Options{
        Discovery:    static.New(host + ":" + strconv.Itoa(port)),
        CheckOptions: opts,
        Interval:     time.Second,
        RPCServer:    srv,
    })
    require.NoError(t, err)
    require.NoError(t, m.Start(ctx))
    defer m.Close()

    cli := mgmtgrpc.NewClient(5 * time.Second)
    defer cli.Close()
    require.Eventually(t, func() bool {
        b, err := cli.GetStatus(ctx, srv.Addr())
        if err != nil { return false }
        var s watch.Snapshot
        return json.Unmarshal(b, &s) == nil && s.Healthy
    }, 30*time.Second, 250*time.Millisecond)

    resp, err := cli.PostCheck(ctx, srv.Addr(), transport.CheckRequest{Host: host, Port: port})
    require.NoError(t, err)
    assert.True(t, resp.Agrees)
}
