package cli

import (
    "context"
    "errors"
    "fmt"
    "os"
    "os/signal"
    "syscall"

    "github.com/sirupsen/logrus"
    "github.com/spf13/cobra"
    "github.com/spf13/pflag"

    "github.com/amirimatin/go-schemacheck/pkg/bootstrap"
    "github.com/amirimatin/go-schemacheck/pkg/config"
    tracing "github.com/amirimatin/go-schemacheck/pkg/observability/tracing"
    "github.com/amirimatin/go-schemacheck/pkg/schema"
)

// ExitDisagree is the exit status of "check" when nodes disagree.
const ExitDisagree = 2

// ExitError carries a process exit status through cobra's error return.
type ExitError struct {
    Code int
    Msg  string
}

func (e *ExitError) Error() string { return e.Msg }

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
    if err == nil { return 0 }
    var ee *ExitError
    if errors.As(err, &ee) { return ee.Code }
    return 1
}

// Checker is what the check and versions commands run against.
type Checker interface {
    Check(ctx context.Context, host string, port int, opts schema.Options) (*schema.AgreementResult, error)
    Versions(ctx context.Context, host string, port int, opts schema.Options) (schema.VersionMap, error)
}

// App holds the state shared by the commands. The zero value is usable.
type App struct {
    // NewChecker overrides the checker used by check and versions.
    NewChecker func(logger logrus.FieldLogger) Checker

    cfgPath string
}

func (a *App) checker(logger logrus.FieldLogger) Checker {
    if a.NewChecker != nil { return a.NewChecker(logger) }
    return schema.New(schema.CheckerOptions{Logger: logger})
}

// flag name -> config key
var flagKeys = map[string]string{
    "host":               "host",
    "port":               "port",
    "username":           "username",
    "password":           "password",
    "no-tls":             "tls.disable",
    "tls-ca":             "tls.ca_file",
    "tls-cert":           "tls.cert_file",
    "tls-key":            "tls.key_file",
    "tls-verify":         "tls.verify",
    "tls-server-name":    "tls.server_name",
    "max-agreement-wait": "max_agreement_wait",
    "timeout":            "timeout",
    "concurrent":         "concurrent",
    "skip-down-peers":    "skip_down_peers",
    "log-level":          "log.level",
    "log-format":         "log.format",
    "trace":              "trace",
    "targets":            "watch.targets",
    "targets-file":       "watch.targets_file",
    "targets-env":        "watch.targets_env",
    "interval":           "watch.interval",
    "parallelism":        "watch.parallelism",
    "mgmt-addr":          "mgmt.addr",
    "mgmt-proto":         "mgmt.proto",
    "mgmt-tls":           "mgmt.tls_enable",
    "mgmt-tls-ca":        "mgmt.tls_ca",
    "mgmt-tls-cert":      "mgmt.tls_cert",
    "mgmt-tls-key":       "mgmt.tls_key",
    "mgmt-tls-verify":    "mgmt.tls_verify",
}

// load builds the Config for cmd: defaults, config file, environment, then
// the flags the user actually set.
func (a *App) load(cmd *cobra.Command) (*config.Config, error) {
    v, err := config.NewViper(a.cfgPath)
    if err != nil { return nil, err }
    var bindErr error
    cmd.Flags().VisitAll(func(f *pflag.Flag) {
        if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
            bindErr = v.BindPFlag(key, f)
        }
    })
    if bindErr != nil { return nil, bindErr }
    return config.FromViper(v)
}

// NewRootCommand returns "schemactl" with every subcommand attached.
func (a *App) NewRootCommand() *cobra.Command {
    root := &cobra.Command{
        Use:           "schemactl",
        Short:         "Cassandra schema agreement checker",
        SilenceUsage:  true,
        SilenceErrors: true,
    }
    a.AddAll(root)
    return root
}

// AddAll attaches check/versions/watch/status to root, together with the
// persistent connection flags they share.
func (a *App) AddAll(root *cobra.Command) {
    pf := root.PersistentFlags()
    pf.StringVar(&a.cfgPath, "config", "", "config file (default ./schemacheck.yaml or /etc/schemacheck/schemacheck.yaml)")
    pf.String("host", "", "contact host: IP, DNS name or SRV record (e.g., _cql._tcp.example.com)")
    pf.Int("port", schema.DefaultPort, "native transport port")
    pf.String("username", "", "authentication user")
    pf.String("password", "", "authentication password")
    pf.Bool("no-tls", false, "connect without TLS")
    pf.String("tls-ca", "", "CA bundle (PEM) used to verify node certificates")
    pf.String("tls-cert", "", "client certificate (PEM)")
    pf.String("tls-key", "", "client private key (PEM)")
    pf.Bool("tls-verify", false, "verify node certificates against the system trust store")
    pf.String("tls-server-name", "", "expected server name for certificate verification")
    pf.Int("max-agreement-wait", int(schema.DefaultMaxAgreementWait.Seconds()), "driver schema agreement wait (seconds)")
    pf.Duration("timeout", schema.DefaultTimeout, "connect and query timeout")
    pf.Bool("concurrent", false, "query peers and local record concurrently")
    pf.Bool("skip-down-peers", false, "ignore peers whose native port is unreachable")
    pf.String("log-level", "info", "log level: debug|info|warn|error")
    pf.String("log-format", "text", "log format: text|json")
    pf.Bool("trace", false, "enable OpenTelemetry stdout tracing (dev)")

    root.AddCommand(a.NewCheckCmd())
    root.AddCommand(a.NewVersionsCmd())
    root.AddCommand(a.NewWatchCmd())
    root.AddCommand(a.NewStatusCmd())
}

// setup loads the config and prepares logging and tracing. The returned
// func flushes traces.
func (a *App) setup(cmd *cobra.Command) (*config.Config, *logrus.Logger, func(), error) {
    cfg, err := a.load(cmd)
    if err != nil { return nil, nil, nil, err }
    logger := bootstrap.Logger(cfg)
    done := func() {}
    if cfg.Trace {
        shutdown, err := tracing.Setup(true)
        if err != nil {
            logger.Warnf("tracing setup error: %v", err)
        } else {
            done = func() { _ = shutdown(context.Background()) }
        }
    }
    return cfg, logger, done, nil
}

func requireHost(cfg *config.Config) error {
    if cfg.Host == "" { return fmt.Errorf("missing --host (or %s_HOST)", config.EnvPrefix) }
    return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
    return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
