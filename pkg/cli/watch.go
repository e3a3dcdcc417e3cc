package cli

import (
    "context"
    "fmt"
    "net"
    "time"

    "github.com/spf13/cobra"

    "github.com/amirimatin/go-schemacheck/pkg/bootstrap"
    "github.com/amirimatin/go-schemacheck/pkg/internal/logutil"
    "github.com/amirimatin/go-schemacheck/pkg/watch"
)

// NewWatchCmd returns the "watch" command, which runs the periodic monitor
// and its management endpoint until interrupted.
func (a *App) NewWatchCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "watch",
        Short: "Periodically check schema agreement on a set of targets",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, logger, done, err := a.setup(cmd)
            if err != nil { return err }
            defer done()
            ctx, cancel := signalContext(cmd.Context())
            defer cancel()

            var chk watch.Checker
            if a.NewChecker != nil { chk = a.NewChecker(logger) }
            m, err := bootstrap.Build(cfg, logger, chk)
            if err != nil { return err }
            evs := m.Subscribe(ctx)
            go func() {
                for e := range evs {
                    logutil.Infof(logger, "event %s target=%s versions=%v", e.Type, e.Status.Target, e.Status.Distinct)
                }
            }()
            logutil.Infof(logger, "watching schema agreement every %s. Press Ctrl+C to exit.", cfg.Watch.Interval)
            return m.Run(ctx)
        },
    }
    f := cmd.Flags()
    f.String("targets", "", "comma-separated targets (host[:port]); defaults to --host")
    f.String("targets-file", "", "path or glob to files listing targets (one per line or CSV)")
    f.String("targets-env", "", "ENV var name containing CSV targets; overrides the file when set")
    f.Duration("interval", 30*time.Second, "check interval")
    f.Int("parallelism", 4, "max targets checked at once")
    addMgmtFlags(cmd)
    return cmd
}

// NewStatusCmd returns the "status" command, which fetches the status of a
// running monitor from its management endpoint.
func (a *App) NewStatusCmd() *cobra.Command {
    var (
        addr    string
        timeout time.Duration
    )
    cmd := &cobra.Command{
        Use:   "status",
        Short: "Fetch a running monitor's status as JSON",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, _, done, err := a.setup(cmd)
            if err != nil { return err }
            defer done()
            if addr == "" { addr = dialable(cfg.Mgmt.Addr) }
            ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
            defer cancel()
            client, err := bootstrap.ManagementClient(cfg, timeout)
            if err != nil { return err }
            data, err := client.GetStatus(ctx, addr)
            if err != nil { return fmt.Errorf("status error: %w", err) }
            out := cmd.OutOrStdout()
            _, _ = out.Write(data)
            if len(data) == 0 || data[len(data)-1] != '\n' { _, _ = out.Write([]byte("\n")) }
            return nil
        },
    }
    cmd.Flags().StringVar(&addr, "addr", "", "management address of a monitor (host:port); defaults to mgmt.addr")
    cmd.Flags().DurationVar(&timeout, "request-timeout", 3*time.Second, "request timeout")
    addMgmtFlags(cmd)
    return cmd
}

func addMgmtFlags(cmd *cobra.Command) {
    f := cmd.Flags()
    f.String("mgmt-addr", ":17942", "management address (tcp)")
    f.String("mgmt-proto", "http", "management RPC protocol: http|grpc")
    f.Bool("mgmt-tls", false, "enable TLS for the management endpoint")
    f.String("mgmt-tls-ca", "", "path to CA cert (PEM)")
    f.String("mgmt-tls-cert", "", "path to certificate (PEM)")
    f.String("mgmt-tls-key", "", "path to private key (PEM)")
    f.Bool("mgmt-tls-verify", false, "verify the management server certificate")
}

// dialable turns a listen address such as ":17942" into one a client can
// dial.
func dialable(addr string) string {
    host, port, err := net.SplitHostPort(addr)
    if err != nil { return addr }
    if host == "" || host == "0.0.0.0" || host == "::" { host = "127.0.0.1" }
    return net.JoinHostPort(host, port)
}
