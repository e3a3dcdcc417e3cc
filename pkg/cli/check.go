package cli

import (
    "encoding/json"
    "fmt"
    "io"
    "net"
    "strconv"
    "text/tabwriter"

    "github.com/spf13/cobra"

    "github.com/amirimatin/go-schemacheck/pkg/schema"
)

type checkOutput struct {
    Target   string            `json:"target"`
    Agrees   bool              `json:"agrees"`
    Versions schema.VersionMap `json:"versions"`
    Skipped  schema.VersionMap `json:"skipped,omitempty"`
}

// NewCheckCmd returns the "check" command. It exits 0 when every node
// reports the same schema version and ExitDisagree otherwise.
func (a *App) NewCheckCmd() *cobra.Command {
    var output string
    cmd := &cobra.Command{
        Use:   "check",
        Short: "Check that all nodes agree on one schema version",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, logger, done, err := a.setup(cmd)
            if err != nil { return err }
            defer done()
            if err := requireHost(cfg); err != nil { return err }
            ctx, cancel := signalContext(cmd.Context())
            defer cancel()

            res, err := a.checker(logger).Check(ctx, cfg.Host, cfg.Port, cfg.CheckOptions())
            if err != nil { return err }
            out := checkOutput{Target: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), Agrees: res.Agrees, Versions: res.Versions, Skipped: res.Skipped}
            if err := render(cmd.OutOrStdout(), output, out); err != nil { return err }
            if !res.Agrees {
                return &ExitError{Code: ExitDisagree, Msg: fmt.Sprintf("schema disagreement: %d versions", len(res.Versions.Distinct()))}
            }
            return nil
        },
    }
    cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table|json")
    return cmd
}

// NewVersionsCmd returns the "versions" command, which prints the merged
// node to schema version map without judging it.
func (a *App) NewVersionsCmd() *cobra.Command {
    var output string
    cmd := &cobra.Command{
        Use:   "versions",
        Short: "Print the schema version reported for every node",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, logger, done, err := a.setup(cmd)
            if err != nil { return err }
            defer done()
            if err := requireHost(cfg); err != nil { return err }
            ctx, cancel := signalContext(cmd.Context())
            defer cancel()

            versions, err := a.checker(logger).Versions(ctx, cfg.Host, cfg.Port, cfg.CheckOptions())
            if err != nil { return err }
            if output == "json" {
                return writeJSON(cmd.OutOrStdout(), versions)
            }
            return writeTable(cmd.OutOrStdout(), versions)
        },
    }
    cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table|json")
    return cmd
}

func render(w io.Writer, format string, out checkOutput) error {
    switch format {
    case "json":
        return writeJSON(w, out)
    case "table", "":
        if err := writeTable(w, out.Versions); err != nil { return err }
        verdict := "yes"
        if !out.Agrees { verdict = "no" }
        if _, err := fmt.Fprintf(w, "\n%s: schema agreement: %s (%d nodes, %d versions)\n", out.Target, verdict, len(out.Versions), len(out.Versions.Distinct())); err != nil { return err }
        for _, addr := range out.Skipped.Addresses() {
            if _, err := fmt.Fprintf(w, "skipped unreachable peer %s (schema version %s)\n", addr, out.Skipped[addr]); err != nil { return err }
        }
        return nil
    default:
        return fmt.Errorf("unknown output format %q", format)
    }
}

func writeJSON(w io.Writer, v interface{}) error {
    enc := json.NewEncoder(w)
    enc.SetIndent("", "  ")
    return enc.Encode(v)
}

func writeTable(w io.Writer, versions schema.VersionMap) error {
    tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
    fmt.Fprintln(tw, "NODE\tSCHEMA VERSION")
    for _, addr := range versions.Addresses() {
        v := versions[addr]
        if v == "" { v = "<none>" }
        fmt.Fprintf(tw, "%s\t%s\n", addr, v)
    }
    return tw.Flush()
}
