package session

import (
    "context"
    "fmt"
    "time"

    "github.com/gocql/gocql"
)

const defaultTimeout = 10 * time.Second

// GocqlDialer opens sessions with the gocql driver. The zero value is ready
// to use.
type GocqlDialer struct {
    // NumConns per host; defaults to 1.
    NumConns int
}

// Dial connects to cp only: initial peer discovery is disabled and an
// AllowList host filter rejects every other node.
func (d GocqlDialer) Dial(ctx context.Context, cp ContactPoint, cfg Config) (Session, error) {
    if err := ctx.Err(); err != nil { return nil, err }
    cluster := d.clusterConfig(ctx, cp, cfg)
    s, err := cluster.CreateSession()
    if err != nil { return nil, fmt.Errorf("create session: %w", err) }
    return &gocqlSession{s: s}, nil
}

func (d GocqlDialer) clusterConfig(ctx context.Context, cp ContactPoint, cfg Config) *gocql.ClusterConfig {
    cluster := gocql.NewCluster(cp.IP.String())
    cluster.Port = cp.Port
    cluster.Consistency = gocql.One
    cluster.DisableInitialHostLookup = true
    cluster.HostFilter = NewAllowList(cp)
    cluster.PoolConfig.HostSelectionPolicy = gocql.RoundRobinHostPolicy()
    cluster.NumConns = d.NumConns
    if cluster.NumConns <= 0 { cluster.NumConns = 1 }
    cluster.Authenticator = gocql.PasswordAuthenticator{Username: cfg.Username, Password: cfg.Password}
    if cfg.TLS != nil {
        cluster.SslOpts = &gocql.SslOptions{Config: cfg.TLS.Clone(), EnableHostVerification: !cfg.TLS.InsecureSkipVerify}
    }
    if cfg.MaxAgreementWait > 0 { cluster.MaxWaitSchemaAgreement = cfg.MaxAgreementWait }
    timeout := cfg.Timeout
    if timeout <= 0 { timeout = defaultTimeout }
    timeout = effectiveTimeout(ctx, timeout)
    cluster.Timeout = timeout
    cluster.ConnectTimeout = timeout
    return cluster
}

type gocqlSession struct {
    s *gocql.Session
}

func (g *gocqlSession) Query(ctx context.Context, stmt string, values ...interface{}) ([]Row, error) {
    iter := g.s.Query(stmt, values...).WithContext(ctx).Consistency(gocql.One).Iter()
    maps, err := iter.SliceMap()
    if cerr := iter.Close(); err == nil { err = cerr }
    if err != nil { return nil, err }
    rows := make([]Row, 0, len(maps))
    for _, m := range maps { rows = append(rows, Row(m)) }
    return rows, nil
}

func (g *gocqlSession) Close() { g.s.Close() }
