package session

import (
    "context"
    "crypto/tls"
    "net"
    "strconv"
    "strings"
    "time"
)

// ContactPoint is the single resolved address a session is pinned to.
type ContactPoint struct {
    // Host is the name the address was resolved from, if any.
    Host string
    IP   net.IP
    Port int
}

// String renders ip:port, bracketing IPv6 addresses.
func (c ContactPoint) String() string { return net.JoinHostPort(c.IP.String(), strconv.Itoa(c.Port)) }

// Label renders "host (ip:port)", or just ip:port when Host is empty or is
// the address itself.
func (c ContactPoint) Label() string {
    addr := c.String()
    h := strings.Trim(c.Host, "[]")
    if h == "" || h == c.IP.String() || net.ParseIP(h).Equal(c.IP) { return addr }
    return c.Host + " (" + addr + ")"
}

// Config carries the per-session connection parameters.
type Config struct {
    Username string
    Password string

    // TLS is nil for plaintext connections.
    TLS *tls.Config

    // MaxAgreementWait bounds the driver's own schema agreement wait.
    MaxAgreementWait time.Duration

    // Timeout applies to connection setup and each query. A context
    // deadline that expires earlier takes precedence.
    Timeout time.Duration
}

// Row is one result row keyed by column name.
type Row map[string]interface{}

// Session is an open, single-node connection pool.
type Session interface {
    // Query runs stmt at consistency ONE and returns all rows.
    Query(ctx context.Context, stmt string, values ...interface{}) ([]Row, error)
    Close()
}

// Dialer opens a Session routed exclusively to one contact point.
type Dialer interface {
    Dial(ctx context.Context, cp ContactPoint, cfg Config) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, cp ContactPoint, cfg Config) (Session, error)

func (f DialerFunc) Dial(ctx context.Context, cp ContactPoint, cfg Config) (Session, error) { return f(ctx, cp, cfg) }

// effectiveTimeout returns the smaller of the configured timeout and the
// time left on ctx.
func effectiveTimeout(ctx context.Context, d time.Duration) time.Duration {
    if dl, ok := ctx.Deadline(); ok {
        left := time.Until(dl)
        if left <= 0 { left = time.Millisecond }
        if d <= 0 || left < d { return left }
    }
    return d
}
