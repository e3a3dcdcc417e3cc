package config

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/spf13/viper"

    "github.com/amirimatin/go-schemacheck/pkg/schema"
    tlsx "github.com/amirimatin/go-schemacheck/pkg/security/tlsconfig"
)

// EnvPrefix is prepended to every environment key, e.g. SCHEMACHECK_HOST or
// SCHEMACHECK_WATCH_INTERVAL.
const EnvPrefix = "SCHEMACHECK"

// TLSConfig controls TLS on driver connections. TLS is on unless Disable is
// set; without CAFile or Verify certificates are not checked.
type TLSConfig struct {
    Disable    bool   `mapstructure:"disable"`
    CAFile     string `mapstructure:"ca_file"`
    CertFile   string `mapstructure:"cert_file"`
    KeyFile    string `mapstructure:"key_file"`
    Verify     bool   `mapstructure:"verify"`
    ServerName string `mapstructure:"server_name"`
}

type LogConfig struct {
    Level  string `mapstructure:"level"`
    Format string `mapstructure:"format"`
    Output string `mapstructure:"output"`
}

// WatchConfig drives the periodic monitor.
type WatchConfig struct {
    Targets     string        `mapstructure:"targets"`
    TargetsFile string        `mapstructure:"targets_file"`
    TargetsEnv  string        `mapstructure:"targets_env"`
    Interval    time.Duration `mapstructure:"interval"`
    Parallelism int           `mapstructure:"parallelism"`
}

// MgmtConfig configures the management endpoints of the monitor.
type MgmtConfig struct {
    Addr       string `mapstructure:"addr"`
    Proto      string `mapstructure:"proto"`
    TLSEnable  bool   `mapstructure:"tls_enable"`
    TLSCA      string `mapstructure:"tls_ca"`
    TLSCert    string `mapstructure:"tls_cert"`
    TLSKey     string `mapstructure:"tls_key"`
    TLSVerify  bool   `mapstructure:"tls_verify"`
    ServerName string `mapstructure:"tls_server_name"`
}

// Config is the full tool configuration. Values come from defaults, an
// optional YAML file, SCHEMACHECK_* environment variables and bound flags,
// in increasing precedence.
type Config struct {
    Host     string `mapstructure:"host"`
    Port     int    `mapstructure:"port"`
    Username string `mapstructure:"username"`
    Password string `mapstructure:"password"`

    TLS TLSConfig `mapstructure:"tls"`

    // MaxAgreementWait is in whole seconds.
    MaxAgreementWait int           `mapstructure:"max_agreement_wait"`
    Timeout          time.Duration `mapstructure:"timeout"`
    Concurrent       bool          `mapstructure:"concurrent"`
    SkipDownPeers    bool          `mapstructure:"skip_down_peers"`

    Log   LogConfig   `mapstructure:"log"`
    Watch WatchConfig `mapstructure:"watch"`
    Mgmt  MgmtConfig  `mapstructure:"mgmt"`
    Trace bool        `mapstructure:"trace"`
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("host", "")
    v.SetDefault("port", schema.DefaultPort)
    v.SetDefault("username", "")
    v.SetDefault("password", "")
    v.SetDefault("tls.disable", false)
    v.SetDefault("tls.ca_file", "")
    v.SetDefault("tls.cert_file", "")
    v.SetDefault("tls.key_file", "")
    v.SetDefault("tls.verify", false)
    v.SetDefault("tls.server_name", "")
    v.SetDefault("max_agreement_wait", int(schema.DefaultMaxAgreementWait/time.Second))
    v.SetDefault("timeout", schema.DefaultTimeout)
    v.SetDefault("concurrent", false)
    v.SetDefault("skip_down_peers", false)
    v.SetDefault("log.level", "info")
    v.SetDefault("log.format", "text")
    v.SetDefault("log.output", "stderr")
    v.SetDefault("watch.targets", "")
    v.SetDefault("watch.targets_file", "")
    v.SetDefault("watch.targets_env", "")
    v.SetDefault("watch.interval", 30*time.Second)
    v.SetDefault("watch.parallelism", 4)
    v.SetDefault("mgmt.addr", ":17942")
    v.SetDefault("mgmt.proto", "http")
    v.SetDefault("mgmt.tls_enable", false)
    v.SetDefault("mgmt.tls_ca", "")
    v.SetDefault("mgmt.tls_cert", "")
    v.SetDefault("mgmt.tls_key", "")
    v.SetDefault("mgmt.tls_verify", false)
    v.SetDefault("mgmt.tls_server_name", "")
    v.SetDefault("trace", false)
}

// NewViper returns a viper instance with defaults and environment binding,
// with configPath (or schemacheck.yaml in . or /etc/schemacheck) read in.
// A missing default file is not an error.
func NewViper(configPath string) (*viper.Viper, error) {
    v := viper.New()
    setDefaults(v)
    if configPath != "" {
        v.SetConfigFile(configPath)
    } else {
        v.SetConfigName("schemacheck")
        v.SetConfigType("yaml")
        v.AddConfigPath(".")
        v.AddConfigPath("/etc/schemacheck")
    }
    v.SetEnvPrefix(EnvPrefix)
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
    v.AutomaticEnv()
    if err := v.ReadInConfig(); err != nil {
        var notFound viper.ConfigFileNotFoundError
        if configPath != "" || !errors.As(err, &notFound) {
            return nil, fmt.Errorf("error reading config file: %w", err)
        }
    }
    return v, nil
}

// FromViper decodes and validates a Config.
func FromViper(v *viper.Viper) (*Config, error) {
    cfg := &Config{}
    if err := v.Unmarshal(cfg); err != nil {
        return nil, fmt.Errorf("error unmarshaling config: %w", err)
    }
    if err := cfg.Validate(); err != nil {
        return nil, fmt.Errorf("config validation failed: %w", err)
    }
    return cfg, nil
}

// Load reads configuration from configPath (optional) and the environment.
func Load(configPath string) (*Config, error) {
    v, err := NewViper(configPath)
    if err != nil { return nil, err }
    return FromViper(v)
}

// Validate checks value ranges. Credentials and host are checked where they
// are used, since not every command needs them.
func (c *Config) Validate() error {
    if c.Port <= 0 || c.Port > 65535 { return fmt.Errorf("invalid port: %d", c.Port) }
    if c.MaxAgreementWait < 0 { return fmt.Errorf("invalid max_agreement_wait: %d", c.MaxAgreementWait) }
    if c.Timeout < 0 { return fmt.Errorf("invalid timeout: %s", c.Timeout) }
    switch c.Log.Format {
    case "text", "json":
    default:
        return fmt.Errorf("invalid log format: %s", c.Log.Format)
    }
    switch c.Mgmt.Proto {
    case "http", "grpc":
    default:
        return fmt.Errorf("invalid mgmt proto: %s", c.Mgmt.Proto)
    }
    if c.Watch.Interval <= 0 { return fmt.Errorf("invalid watch interval: %s", c.Watch.Interval) }
    if c.Watch.Parallelism <= 0 { return fmt.Errorf("invalid watch parallelism: %d", c.Watch.Parallelism) }
    return nil
}

// CheckOptions converts the connection settings into per-call options.
func (c *Config) CheckOptions() schema.Options {
    opts := schema.Options{
        Credentials:      schema.Credentials{Username: c.Username, Password: c.Password},
        WithoutTLS:       c.TLS.Disable,
        TLS:              tlsx.Options{CAFile: c.TLS.CAFile, CertFile: c.TLS.CertFile, KeyFile: c.TLS.KeyFile, Verify: c.TLS.Verify, ServerName: c.TLS.ServerName},
        MaxAgreementWait: time.Duration(c.MaxAgreementWait) * time.Second,
        Timeout:          c.Timeout,
        Concurrent:       c.Concurrent,
    }
    if c.SkipDownPeers {
        opts.Liveness = schema.TCPProbe{Port: c.Port, Timeout: c.Timeout}
    }
    return opts
}

// MgmtTLS returns the TLS options for the management endpoints.
func (c *Config) MgmtTLS() tlsx.Options {
    return tlsx.Options{
        Enable:     c.Mgmt.TLSEnable,
        CAFile:     c.Mgmt.TLSCA,
        CertFile:   c.Mgmt.TLSCert,
        KeyFile:    c.Mgmt.TLSKey,
        Verify:     c.Mgmt.TLSVerify,
        ServerName: c.Mgmt.ServerName,
    }
}
