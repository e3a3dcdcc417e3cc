package watch

import (
    "context"
    "errors"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/amirimatin/go-schemacheck/pkg/discovery"
    "github.com/amirimatin/go-schemacheck/pkg/schema"
    "github.com/amirimatin/go-schemacheck/pkg/transport"
)

// Checker is the schema check the monitor runs; *schema.Checker satisfies it.
type Checker interface {
    Check(ctx context.Context, host string, port int, opts schema.Options) (*schema.AgreementResult, error)
}

// Options carries dependency-injected components and runtime configuration
// for a Monitor. Instances are typically produced by bootstrap.Build.
type Options struct {
    // Discovery lists the targets to check on every round.
    Discovery discovery.Discovery
    // Checker runs each check. Defaults to a gocql-backed schema.Checker.
    Checker Checker
    // CheckOptions are passed unchanged to every check.
    CheckOptions schema.Options
    // DefaultPort applies to targets without an explicit port.
    DefaultPort int

    Interval    time.Duration
    Parallelism int

    Logger logrus.FieldLogger

    // Optional management endpoint serving status and on-demand checks.
    RPCServer transport.RPCServer

    // OnEvent, when set, is called synchronously for every published event.
    OnEvent func(Event)
}

// Validate performs a minimal validation of Options. It does not start any
// network activity and is safe to call before New.
func (o Options) Validate() error {
    if o.Discovery == nil { return errors.New("watch: nil Discovery") }
    if o.Interval < 0 { return errors.New("watch: negative Interval") }
    if o.Parallelism < 0 { return errors.New("watch: negative Parallelism") }
    return o.CheckOptions.Validate()
}

func (o Options) withDefaults() Options {
    if o.Checker == nil { o.Checker = schema.New(schema.CheckerOptions{Logger: o.Logger}) }
    if o.DefaultPort <= 0 { o.DefaultPort = schema.DefaultPort }
    if o.Interval == 0 { o.Interval = 30 * time.Second }
    if o.Parallelism == 0 { o.Parallelism = 4 }
    return o
}
