package httpjson

import (
    "bytes"
    "context"
    "crypto/tls"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "time"

    "github.com/amirimatin/go-schemacheck/pkg/transport"
)

// Client is a thin HTTP client for the management API. It supports optional
// TLS configuration and simple retry with backoff on transport failures and
// 5xx responses.
type Client struct {
    httpc     *http.Client
    transport *http.Transport
    isTLS     bool
}

// NewClient constructs a new Client with the given timeout.
func NewClient(timeout time.Duration) *Client {
    if timeout <= 0 { timeout = 3 * time.Second }
    tr := &http.Transport{}
    return &Client{httpc: &http.Client{Timeout: timeout, Transport: tr}, transport: tr}
}

// UseTLS sets the TLS config for the underlying HTTP client and switches the
// request scheme to https.
func (c *Client) UseTLS(cfg *tls.Config) *Client {
    if c.transport != nil { c.transport.TLSClientConfig = cfg }
    c.isTLS = cfg != nil
    return c
}

func (c *Client) url(addr, path string) string {
    scheme := "http"
    if c.isTLS { scheme = "https" }
    return fmt.Sprintf("%s://%s%s", scheme, addr, path)
}

type permanentError struct{ error }

// do runs newReq up to three times, backing off between attempts, and
// returns the body of the first 2xx response.
func (c *Client) do(ctx context.Context, newReq func() (*http.Request, error)) ([]byte, int, error) {
    var lastErr error
    var lastCode int
    for attempt := 0; attempt < 3; attempt++ {
        req, err := newReq()
        if err != nil { return nil, 0, err }
        resp, err := c.httpc.Do(req)
        if err != nil {
            lastErr = err
        } else {
            b, rerr := io.ReadAll(resp.Body)
            resp.Body.Close()
            lastCode = resp.StatusCode
            switch {
            case rerr != nil:
                lastErr = rerr
            case resp.StatusCode >= 200 && resp.StatusCode < 300:
                return b, resp.StatusCode, nil
            case resp.StatusCode < 500:
                return b, resp.StatusCode, permanentError{fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(b))}
            default:
                lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
            }
        }
        select {
        case <-ctx.Done():
            return nil, lastCode, ctx.Err()
        case <-time.After(time.Duration(100*(1<<attempt)) * time.Millisecond):
        }
    }
    return nil, lastCode, lastErr
}

// GetStatus fetches the JSON status snapshot from addr.
func (c *Client) GetStatus(ctx context.Context, addr string) ([]byte, error) {
    b, _, err := c.do(ctx, func() (*http.Request, error) {
        return http.NewRequestWithContext(ctx, http.MethodGet, c.url(addr, "/status"), nil)
    })
    var pe permanentError
    if errors.As(err, &pe) { return nil, pe.error }
    return b, err
}

// PostCheck asks the monitor at addr to check req.Host now. A failed check
// is returned both in the response and as an error.
func (c *Client) PostCheck(ctx context.Context, addr string, req transport.CheckRequest) (transport.CheckResponse, error) {
    var out transport.CheckResponse
    body, err := json.Marshal(req)
    if err != nil { return out, err }
    b, _, err := c.do(ctx, func() (*http.Request, error) {
        r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(addr, "/check"), bytes.NewReader(body))
        if err != nil { return nil, err }
        r.Header.Set("Content-Type", "application/json")
        return r, nil
    })
    if len(b) > 0 { _ = json.Unmarshal(b, &out) }
    var pe permanentError
    if errors.As(err, &pe) {
        if out.Error != "" { return out, errors.New(out.Error) }
        return out, pe.error
    }
    if err == nil && out.Error != "" { return out, errors.New(out.Error) }
    return out, err
}

var _ transport.RPCClient = (*Client)(nil)
