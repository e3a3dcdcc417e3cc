package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/amirimatin/go-schemacheck/pkg/schema"
)

func TestDefaults(t *testing.T) {
    cfg, err := Load("")
    require.NoError(t, err)
    assert.Equal(t, 9042, cfg.Port)
    assert.Equal(t, 10, cfg.MaxAgreementWait)
    assert.Equal(t, 30*time.Second, cfg.Watch.Interval)
    assert.Equal(t, "http", cfg.Mgmt.Proto)

    opts := cfg.CheckOptions()
    assert.False(t, opts.WithoutTLS, "TLS is on by default")
    assert.Equal(t, 10*time.Second, opts.MaxAgreementWait)
    assert.Nil(t, opts.Liveness, "down peers are kept by default")
}

func TestFileAndEnv(t *testing.T) {
    dir := t.TempDir()
    p := filepath.Join(dir, "schemacheck.yaml")
    body := []byte(`
host: db1.example.com
port: 19042
username: monitor
password: from-file
max_agreement_wait: 3
timeout: 4s
skip_down_peers: true
tls:
  disable: true
watch:
  targets: "db1,db2:19042"
  interval: 1m
mgmt:
  proto: grpc
`)
    require.NoError(t, os.WriteFile(p, body, 0o600))
    t.Setenv("SCHEMACHECK_PASSWORD", "from-env")
    t.Setenv("SCHEMACHECK_WATCH_PARALLELISM", "2")

    cfg, err := Load(p)
    require.NoError(t, err)
    assert.Equal(t, "db1.example.com", cfg.Host)
    assert.Equal(t, 19042, cfg.Port)
    assert.Equal(t, "from-env", cfg.Password)
    assert.Equal(t, 2, cfg.Watch.Parallelism)
    assert.Equal(t, time.Minute, cfg.Watch.Interval)
    assert.Equal(t, "grpc", cfg.Mgmt.Proto)

    opts := cfg.CheckOptions()
    assert.True(t, opts.WithoutTLS)
    assert.Equal(t, 3*time.Second, opts.MaxAgreementWait)
    assert.Equal(t, 4*time.Second, opts.Timeout)
    assert.Equal(t, schema.Credentials{Username: "monitor", Password: "from-env"}, opts.Credentials)
    probe, ok := opts.Liveness.(schema.TCPProbe)
    require.True(t, ok)
    assert.Equal(t, 19042, probe.Port)
}

func TestExplicitMissingFile(t *testing.T) {
    _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
    require.Error(t, err)
}

func TestValidate(t *testing.T) {
    v, err := NewViper("")
    require.NoError(t, err)
    v.Set("mgmt.proto", "smtp")
    _, err = FromViper(v)
    require.Error(t, err)

    v.Set("mgmt.proto", "http")
    v.Set("port", 0)
    _, err = FromViper(v)
    require.Error(t, err)

    v.Set("port", 9042)
    v.Set("log.format", "xml")
    _, err = FromViper(v)
    require.Error(t, err)
}
