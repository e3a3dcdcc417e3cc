package tlsconfig

import (
    "crypto/tls"
    "crypto/x509"
    "errors"
    "fmt"
    "os"
)

// Options defines TLS inputs for the driver connection and the management
// endpoints.
//
// For driver connections the default is an empty trust store: nodes are
// contacted by IP and usually present self-signed or cluster-internal
// certificates, so verification is off unless CAFile is given or Verify is set.
type Options struct {
    Enable     bool
    CAFile     string
    CertFile   string
    KeyFile    string
    Verify     bool
    ServerName string
}

// Verifying reports whether peer certificates will be checked.
func (o Options) Verifying() bool { return o.Verify || o.CAFile != "" }

// Client returns a tls.Config for clients if enabled, otherwise nil.
func (o Options) Client() (*tls.Config, error) {
    if !o.Enable {
        return nil, nil
    }
    cfg := &tls.Config{InsecureSkipVerify: !o.Verifying()} //nolint:gosec
    if o.ServerName != "" { cfg.ServerName = o.ServerName }
    if o.CAFile != "" {
        pool, err := loadPool(o.CAFile)
        if err != nil { return nil, err }
        cfg.RootCAs = pool
    }
    if o.CertFile != "" || o.KeyFile != "" {
        if o.CertFile == "" || o.KeyFile == "" {
            return nil, errors.New("tls: client cert and key must be given together")
        }
        cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
        if err != nil { return nil, err }
        cfg.Certificates = []tls.Certificate{cert}
    }
    return cfg, nil
}

// Server returns a tls.Config for the management server if enabled, otherwise
// nil. A CA file turns on client certificate verification.
func (o Options) Server() (*tls.Config, error) {
    if !o.Enable {
        return nil, nil
    }
    if o.CertFile == "" || o.KeyFile == "" {
        return nil, errors.New("tls: server cert/key required when TLS enabled")
    }
    cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
    if err != nil { return nil, err }
    cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
    if o.CAFile != "" {
        pool, err := loadPool(o.CAFile)
        if err != nil { return nil, err }
        cfg.ClientCAs = pool
        cfg.ClientAuth = tls.RequireAndVerifyClientCert
    }
    return cfg, nil
}

func loadPool(path string) (*x509.CertPool, error) {
    ca, err := os.ReadFile(path)
    if err != nil { return nil, err }
    pool := x509.NewCertPool()
    if !pool.AppendCertsFromPEM(ca) {
        return nil, fmt.Errorf("tls: no certificates found in %s", path)
    }
    return pool, nil
}
