package bootstrap

import (
    "context"
    "crypto/tls"
    "errors"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/amirimatin/go-schemacheck/pkg/config"
    "github.com/amirimatin/go-schemacheck/pkg/discovery"
    dFile "github.com/amirimatin/go-schemacheck/pkg/discovery/file"
    dStatic "github.com/amirimatin/go-schemacheck/pkg/discovery/static"
    "github.com/amirimatin/go-schemacheck/pkg/internal/logutil"
    "github.com/amirimatin/go-schemacheck/pkg/schema"
    "github.com/amirimatin/go-schemacheck/pkg/transport"
    mgmtgrpc "github.com/amirimatin/go-schemacheck/pkg/transport/grpc"
    httpjson "github.com/amirimatin/go-schemacheck/pkg/transport/httpjson"
    "github.com/amirimatin/go-schemacheck/pkg/watch"
)

var ErrNoTargets = errors.New("bootstrap: no watch targets configured")

// Logger builds the process logger from the log section of cfg.
func Logger(cfg *config.Config) *logrus.Logger {
    return logutil.New(logutil.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
}

// Discovery selects the target source: files or an environment variable when
// either is configured, else the static watch list, else the single host.
func Discovery(cfg *config.Config) (discovery.Discovery, error) {
    w := cfg.Watch
    if w.TargetsFile != "" || w.TargetsEnv != "" {
        return dFile.New(dFile.Options{Path: w.TargetsFile, Env: w.TargetsEnv}), nil
    }
    targets := dStatic.Parse(w.Targets)
    if len(targets) == 0 && cfg.Host != "" { targets = []string{cfg.Host} }
    if len(targets) == 0 { return nil, ErrNoTargets }
    return dStatic.New(targets...), nil
}

// ManagementServer returns the configured management endpoint, or nil when
// mgmt.addr is empty.
func ManagementServer(cfg *config.Config, logger logrus.FieldLogger) (transport.RPCServer, error) {
    if cfg.Mgmt.Addr == "" { return nil, nil }
    srvTLS, err := cfg.MgmtTLS().Server()
    if err != nil { return nil, err }
    switch cfg.Mgmt.Proto {
    case "grpc":
        s := mgmtgrpc.NewServer(cfg.Mgmt.Addr)
        if srvTLS != nil { s.UseTLS(srvTLS) }
        return s, nil
    default:
        s := httpjson.NewServer(cfg.Mgmt.Addr, logger)
        if srvTLS != nil { s.UseTLS(srvTLS) }
        return s, nil
    }
}

// ManagementClient returns a client for a running monitor's endpoint using
// the configured protocol and TLS settings.
func ManagementClient(cfg *config.Config, timeout time.Duration) (transport.RPCClient, error) {
    var cliTLS *tls.Config
    if cfg.Mgmt.TLSEnable {
        c, err := cfg.MgmtTLS().Client()
        if err != nil { return nil, err }
        cliTLS = c
    }
    switch cfg.Mgmt.Proto {
    case "grpc":
        c := mgmtgrpc.NewClient(timeout)
        if cliTLS != nil { c.UseTLS(cliTLS) }
        return c, nil
    default:
        c := httpjson.NewClient(timeout)
        if cliTLS != nil { c.UseTLS(cliTLS) }
        return c, nil
    }
}

// Build assembles a watch.Monitor from cfg without starting it. A nil
// checker selects the gocql-backed schema.Checker.
func Build(cfg *config.Config, logger logrus.FieldLogger, checker watch.Checker) (*watch.Monitor, error) {
    if logger == nil { logger = Logger(cfg) }
    disc, err := Discovery(cfg)
    if err != nil { return nil, err }
    srv, err := ManagementServer(cfg, logger)
    if err != nil { return nil, err }
    if checker == nil { checker = schema.New(schema.CheckerOptions{Logger: logger}) }

    return watch.New(watch.Options{
        Discovery:    disc,
        Checker:      checker,
        CheckOptions: cfg.CheckOptions(),
        DefaultPort:  cfg.Port,
        Interval:     cfg.Watch.Interval,
        Parallelism:  cfg.Watch.Parallelism,
        Logger:       logger,
        RPCServer:    srv,
    })
}

// Run builds and starts the monitor, returning it for lifecycle control.
// The caller is responsible for calling Close() when finished.
func Run(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*watch.Monitor, error) {
    m, err := Build(cfg, logger, nil)
    if err != nil { return nil, err }
    if err := m.Start(ctx); err != nil { return nil, err }
    return m, nil
}
