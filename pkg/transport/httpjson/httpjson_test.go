package httpjson

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/amirimatin/go-schemacheck/pkg/transport"
)

func statusOK(context.Context) ([]byte, error) { return []byte(`{"targets":[]}`), nil }

func checkFn(_ context.Context, req transport.CheckRequest) (transport.CheckResponse, error) {
    if req.Host == "" { return transport.CheckResponse{}, errors.New("missing host") }
    return transport.CheckResponse{Target: req.Host + ":9042", Agrees: true, Versions: map[string]string{"10.0.0.1": "tok-A"}}, nil
}

func hostOf(ts *httptest.Server) string { return strings.TrimPrefix(ts.URL, "http://") }

func TestStatusAndCheck(t *testing.T) {
    ts := httptest.NewServer(Handler(statusOK, checkFn))
    defer ts.Close()
    c := NewClient(time.Second)
    ctx := context.Background()

    data, err := c.GetStatus(ctx, hostOf(ts))
    require.NoError(t, err)
    assert.JSONEq(t, `{"targets":[]}`, string(data))

    resp, err := c.PostCheck(ctx, hostOf(ts), transport.CheckRequest{Host: "db1"})
    require.NoError(t, err)
    assert.True(t, resp.Agrees)
    assert.Equal(t, "db1:9042", resp.Target)
    assert.Equal(t, "tok-A", resp.Versions["10.0.0.1"])
}

func TestCheckBadRequestNotRetried(t *testing.T) {
    var calls atomic.Int32
    h := Handler(statusOK, func(ctx context.Context, req transport.CheckRequest) (transport.CheckResponse, error) {
        calls.Add(1)
        return checkFn(ctx, req)
    })
    ts := httptest.NewServer(h)
    defer ts.Close()
    _, err := NewClient(time.Second).PostCheck(context.Background(), hostOf(ts), transport.CheckRequest{})
    require.Error(t, err)
    assert.Contains(t, err.Error(), "missing host")
    assert.Equal(t, int32(1), calls.Load())
}

func TestStatusRetriesServerErrors(t *testing.T) {
    var calls atomic.Int32
    ts := httptest.NewServer(Handler(func(context.Context) ([]byte, error) {
        if calls.Add(1) < 2 { return nil, errors.New("warming up") }
        return []byte(`{}`), nil
    }, nil))
    defer ts.Close()
    data, err := NewClient(time.Second).GetStatus(context.Background(), hostOf(ts))
    require.NoError(t, err)
    assert.Equal(t, "{}", string(data))
    assert.Equal(t, int32(2), calls.Load())
}

func TestMethodsAndHealth(t *testing.T) {
    ts := httptest.NewServer(Handler(statusOK, nil))
    defer ts.Close()

    resp, err := http.Post(ts.URL+"/status", "application/json", nil)
    require.NoError(t, err)
    resp.Body.Close()
    assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

    resp, err = http.Post(ts.URL+"/check", "application/json", strings.NewReader(`{"host":"db1"}`))
    require.NoError(t, err)
    resp.Body.Close()
    assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

    resp, err = http.Get(ts.URL + "/healthz")
    require.NoError(t, err)
    resp.Body.Close()
    assert.Equal(t, http.StatusOK, resp.StatusCode)

    resp, err = http.Get(ts.URL + "/metrics")
    require.NoError(t, err)
    resp.Body.Close()
    assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerStartStop(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    s := NewServer("127.0.0.1:0", nil)
    require.NoError(t, s.Start(ctx, statusOK, checkFn))
    addr := s.Addr()
    assert.NotEqual(t, "127.0.0.1:0", addr)

    data, err := NewClient(time.Second).GetStatus(ctx, addr)
    require.NoError(t, err)
    assert.JSONEq(t, `{"targets":[]}`, string(data))
    require.NoError(t, s.Stop(context.Background()))
    require.NoError(t, s.Stop(context.Background()))
}
