package schema

import (
    "context"
    "sort"
    "time"

    tlsx "github.com/amirimatin/go-schemacheck/pkg/security/tlsconfig"
    "github.com/amirimatin/go-schemacheck/pkg/session"
)

const (
    DefaultPort             = 9042
    DefaultMaxAgreementWait = 10 * time.Second
    DefaultTimeout          = 10 * time.Second
)

// Credentials for plain-text authentication.
type Credentials struct {
    Username string `json:"username" mapstructure:"username"`
    Password string `json:"-" mapstructure:"password"`
}

// LivenessProbe reports whether a peer address is currently reachable.
type LivenessProbe interface {
    Alive(ctx context.Context, addr string) bool
}

// Options is the per-call connection configuration. It is passed by value
// and never stored between checks.
type Options struct {
    Credentials Credentials

    // WithoutTLS disables TLS. By default TLS is on with an empty trust
    // store (no certificate verification).
    WithoutTLS bool
    // TLS optionally adds a CA, a client certificate or verification. Its
    // Enable field is ignored; WithoutTLS decides.
    TLS tlsx.Options

    // MaxAgreementWait bounds the driver's own schema agreement wait.
    MaxAgreementWait time.Duration
    // Timeout for connection setup and each query.
    Timeout time.Duration

    // Concurrent runs the peer and local fetches in parallel, each on its
    // own session.
    Concurrent bool

    // Liveness, when set, drops peers it reports as down. It measures
    // reachability from the checking host, not the cluster's own view: a
    // peer behind NAT or on a private network is dropped even when healthy.
    // Dropped peers are logged and returned in AgreementResult.Skipped; if
    // every peer is dropped the check fails with ErrPeersUnreachable. Nil
    // keeps every peer the contacted node knows about, including stale ones.
    Liveness LivenessProbe
}

func (o Options) withDefaults() Options {
    if o.MaxAgreementWait <= 0 { o.MaxAgreementWait = DefaultMaxAgreementWait }
    if o.Timeout <= 0 { o.Timeout = DefaultTimeout }
    return o
}

// Validate checks the options without any network activity.
func (o Options) Validate() error {
    if o.Credentials.Username == "" { return ErrMissingCredentials }
    return nil
}

func (o Options) sessionConfig() (session.Config, error) {
    cfg := session.Config{
        Username:         o.Credentials.Username,
        Password:         o.Credentials.Password,
        MaxAgreementWait: o.MaxAgreementWait,
        Timeout:          o.Timeout,
    }
    if !o.WithoutTLS {
        t := o.TLS
        t.Enable = true
        tc, err := t.Client()
        if err != nil { return cfg, err }
        cfg.TLS = tc
    }
    return cfg, nil
}

// VersionMap maps a node address to its schema version token.
type VersionMap map[string]string

// Clone returns a copy of m.
func (m VersionMap) Clone() VersionMap {
    out := make(VersionMap, len(m))
    for k, v := range m { out[k] = v }
    return out
}

// Distinct returns the sorted set of version tokens in m.
func (m VersionMap) Distinct() []string {
    seen := make(map[string]struct{}, len(m))
    for _, v := range m { seen[v] = struct{}{} }
    out := make([]string, 0, len(seen))
    for v := range seen { out = append(out, v) }
    sort.Strings(out)
    return out
}

// Groups maps each version token to the sorted addresses reporting it.
func (m VersionMap) Groups() map[string][]string {
    out := make(map[string][]string)
    for addr, v := range m { out[v] = append(out[v], addr) }
    for _, addrs := range out { sort.Strings(addrs) }
    return out
}

// Addresses returns the node addresses in m, sorted.
func (m VersionMap) Addresses() []string {
    out := make([]string, 0, len(m))
    for k := range m { out = append(out, k) }
    sort.Strings(out)
    return out
}

// AgreementResult is the verdict of one check plus the observed versions.
// Skipped holds peers left out of the verdict by Options.Liveness.
type AgreementResult struct {
    Agrees   bool       `json:"agrees"`
    Versions VersionMap `json:"versions"`
    Skipped  VersionMap `json:"skipped,omitempty"`
}
