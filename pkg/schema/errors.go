package schema

import (
    "errors"
    "fmt"
    "net"
    "strings"
)

var (
    ErrResolution  = errors.New("schema: resolution failed")
    ErrConnection  = errors.New("schema: connection failed")
    ErrQuery       = errors.New("schema: query failed")
    ErrAcquisition = errors.New("schema: local schema record unavailable")

    ErrPeersUnreachable = errors.New("schema: no peer reachable")

    ErrMissingCredentials = errors.New("schema: missing credentials")
)

// ResolutionError reports that Host could not be turned into a contact point.
type ResolutionError struct {
    Host string
    Err  error
}

func (e *ResolutionError) Error() string { return fmt.Sprintf("schema: resolve %s: %v", e.Host, e.Err) }
func (e *ResolutionError) Unwrap() error { return e.Err }
func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

// ConnectionError reports a TCP, TLS or authentication failure while opening
// a session to Addr (ip:port) resolved from Host.
type ConnectionError struct {
    Host string
    Addr string
    Err  error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("schema: connect %s: %v", where(e.Host, e.Addr), e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }
func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// QueryError reports that Stmt failed on the node at Addr.
type QueryError struct {
    Host string
    Addr string
    Stmt string
    Err  error
}

func (e *QueryError) Error() string { return fmt.Sprintf("schema: query %s on %s: %v", e.Stmt, where(e.Host, e.Addr), e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }
func (e *QueryError) Is(target error) bool { return target == ErrQuery }

// AcquisitionError reports that the local identity record at Addr did not
// contain exactly one row.
type AcquisitionError struct {
    Host string
    Addr string
    Rows int
}

func (e *AcquisitionError) Error() string {
    return fmt.Sprintf("schema: failed to acquire local schema info from %s (%d rows)", where(e.Host, e.Addr), e.Rows)
}
func (e *AcquisitionError) Is(target error) bool { return target == ErrAcquisition }

// UnreachableError reports that the liveness filter dropped every peer the
// contacted node listed, leaving only its own version to compare.
type UnreachableError struct {
    Host    string
    Addr    string
    Dropped VersionMap
}

func (e *UnreachableError) Error() string {
    return fmt.Sprintf("schema: all %d peers of %s unreachable from this host: %v", len(e.Dropped), where(e.Host, e.Addr), e.Dropped.Addresses())
}
func (e *UnreachableError) Is(target error) bool { return target == ErrPeersUnreachable }

// where names a node as "host (ip:port)" when the host differs from the
// address.
func where(host, addr string) string {
    if host == "" { return addr }
    if h, _, err := net.SplitHostPort(addr); err == nil && h == strings.Trim(host, "[]") { return addr }
    return host + " (" + addr + ")"
}

// ErrorKind names the error class of err for metrics and logs: resolution,
// connection, query, acquisition, liveness, or other.
func ErrorKind(err error) string {
    switch {
    case errors.Is(err, ErrResolution):
        return "resolution"
    case errors.Is(err, ErrConnection):
        return "connection"
    case errors.Is(err, ErrQuery):
        return "query"
    case errors.Is(err, ErrAcquisition):
        return "acquisition"
    case errors.Is(err, ErrPeersUnreachable):
        return "liveness"
    default:
        return "other"
    }
}
