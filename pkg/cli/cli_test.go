package cli

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "testing"
    "time"

    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/amirimatin/go-schemacheck/pkg/schema"
    "github.com/amirimatin/go-schemacheck/pkg/transport"
    "github.com/amirimatin/go-schemacheck/pkg/transport/httpjson"
)

type fakeChecker struct {
    versions schema.VersionMap
    err      error

    host string
    port int
    opts schema.Options
}

func (f *fakeChecker) Versions(_ context.Context, host string, port int, opts schema.Options) (schema.VersionMap, error) {
    f.host, f.port, f.opts = host, port, opts
    if f.err != nil { return nil, f.err }
    return f.versions, nil
}

func (f *fakeChecker) Check(ctx context.Context, host string, port int, opts schema.Options) (*schema.AgreementResult, error) {
    v, err := f.Versions(ctx, host, port, opts)
    if err != nil { return nil, err }
    res := schema.Evaluate(v)
    return &res, nil
}

func run(t *testing.T, fc *fakeChecker, args ...string) (string, error) {
    t.Helper()
    app := &App{NewChecker: func(logrus.FieldLogger) Checker { return fc }}
    root := app.NewRootCommand()
    var out bytes.Buffer
    root.SetOut(&out)
    root.SetErr(&out)
    root.SetArgs(args)
    err := root.Execute()
    return out.String(), err
}

var login = []string{"--username", "cassandra", "--password", "cassandra"}

func TestCheckAgree(t *testing.T) {
    fc := &fakeChecker{versions: schema.VersionMap{"10.0.0.1": "v1", "10.0.0.2": "v1"}}
    out, err := run(t, fc, append([]string{"check", "--host", "db1"}, login...)...)
    require.NoError(t, err)
    assert.Equal(t, 0, ExitCode(err))
    assert.Contains(t, out, "NODE")
    assert.Contains(t, out, "10.0.0.2")
    assert.Contains(t, out, "db1:9042: schema agreement: yes (2 nodes, 1 versions)")
    assert.Equal(t, "db1", fc.host)
    assert.Equal(t, schema.DefaultPort, fc.port)
}

func TestCheckDisagreeExitsTwo(t *testing.T) {
    fc := &fakeChecker{versions: schema.VersionMap{"10.0.0.1": "v1", "10.0.0.2": "v2"}}
    out, err := run(t, fc, append([]string{"check", "--host", "db1", "-o", "json"}, login...)...)
    require.Error(t, err)
    assert.Equal(t, ExitDisagree, ExitCode(err))

    var got checkOutput
    require.NoError(t, json.Unmarshal([]byte(out), &got))
    assert.False(t, got.Agrees)
    assert.Equal(t, fc.versions, got.Versions)
}

func TestCheckErrors(t *testing.T) {
    _, err := run(t, &fakeChecker{}, append([]string{"check"}, login...)...)
    assert.ErrorContains(t, err, "missing --host")

    fc := &fakeChecker{err: &schema.ConnectionError{Addr: "10.0.0.1:9042", Err: errors.New("refused")}}
    _, err = run(t, fc, append([]string{"check", "--host", "db1"}, login...)...)
    assert.ErrorIs(t, err, schema.ErrConnection)
    assert.Equal(t, 1, ExitCode(err))

    _, err = run(t, &fakeChecker{versions: schema.VersionMap{"a": "v"}}, append([]string{"check", "--host", "db1", "-o", "xml"}, login...)...)
    assert.ErrorContains(t, err, "unknown output format")
}

func TestFlagsReachCheckOptions(t *testing.T) {
    fc := &fakeChecker{versions: schema.VersionMap{"10.0.0.1": "v1"}}
    _, err := run(t, fc, append([]string{"check", "--host", "db1", "--port", "19042", "--no-tls", "--max-agreement-wait", "3", "--concurrent", "--skip-down-peers"}, login...)...)
    require.NoError(t, err)
    assert.Equal(t, 19042, fc.port)
    assert.True(t, fc.opts.WithoutTLS)
    assert.True(t, fc.opts.Concurrent)
    assert.Equal(t, 3*time.Second, fc.opts.MaxAgreementWait)
    assert.Equal(t, "cassandra", fc.opts.Credentials.Username)
    require.NotNil(t, fc.opts.Liveness)
    assert.Equal(t, schema.TCPProbe{Port: 19042, Timeout: schema.DefaultTimeout}, fc.opts.Liveness)
}

func TestEnvironmentSuppliesHost(t *testing.T) {
    t.Setenv("SCHEMACHECK_HOST", "db-env")
    t.Setenv("SCHEMACHECK_USERNAME", "u")
    t.Setenv("SCHEMACHECK_PASSWORD", "p")
    fc := &fakeChecker{versions: schema.VersionMap{"10.0.0.1": "v1"}}
    _, err := run(t, fc, "check")
    require.NoError(t, err)
    assert.Equal(t, "db-env", fc.host)
    assert.Equal(t, "u", fc.opts.Credentials.Username)

    _, err = run(t, fc, "check", "--host", "db-flag")
    require.NoError(t, err)
    assert.Equal(t, "db-flag", fc.host, "flags win over the environment")
}

func TestVersionsCommand(t *testing.T) {
    fc := &fakeChecker{versions: schema.VersionMap{"10.0.0.1": "v1", "10.0.0.2": ""}}
    out, err := run(t, fc, append([]string{"versions", "--host", "db1", "-o", "json"}, login...)...)
    require.NoError(t, err)
    var got schema.VersionMap
    require.NoError(t, json.Unmarshal([]byte(out), &got))
    assert.Equal(t, fc.versions, got)

    out, err = run(t, fc, append([]string{"versions", "--host", "db1"}, login...)...)
    require.NoError(t, err)
    assert.Contains(t, out, "<none>")
}

func TestStatusCommand(t *testing.T) {
    srv := httpjson.NewServer("127.0.0.1:0", nil)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    status := func(context.Context) ([]byte, error) { return []byte(`{"healthy":true}`), nil }
    check := func(context.Context, transport.CheckRequest) (transport.CheckResponse, error) { return transport.CheckResponse{}, nil }
    require.NoError(t, srv.Start(ctx, status, check))
    defer srv.Stop(context.Background())

    out, err := run(t, &fakeChecker{}, "status", "--addr", srv.Addr())
    require.NoError(t, err)
    assert.Equal(t, "{\"healthy\":true}\n", out)
}

func TestDialable(t *testing.T) {
    assert.Equal(t, "127.0.0.1:17942", dialable(":17942"))
    assert.Equal(t, "127.0.0.1:17942", dialable("0.0.0.0:17942"))
    assert.Equal(t, "10.1.1.1:80", dialable("10.1.1.1:80"))
    assert.Equal(t, "garbage", dialable("garbage"))
}

func TestRenderListsSkippedPeers(t *testing.T) {
    var out bytes.Buffer
    err := render(&out, "table", checkOutput{
        Target:   "db1:9042",
        Agrees:   true,
        Versions: schema.VersionMap{"10.0.0.1": "v1", "10.0.0.2": "v1"},
        Skipped:  schema.VersionMap{"192.0.2.10": "v0"},
    })
    require.NoError(t, err)
    assert.Contains(t, out.String(), "skipped unreachable peer 192.0.2.10 (schema version v0)")
}
