package logutil

import (
    "io"
    "os"
    "strings"
    "sync/atomic"

    "github.com/sirupsen/logrus"
)

var jsonMode atomic.Bool

func init() {
    if os.Getenv("SCHEMACHECK_LOG_JSON") == "1" || os.Getenv("SCHEMACHECK_LOG_FORMAT") == "json" {
        SetJSON(true)
    }
}

// Config selects level, format (text|json) and output (stdout|stderr).
type Config struct {
    Level  string
    Format string
    Output string
}

// New builds a logrus logger from cfg. Unknown levels fall back to info.
func New(cfg Config) *logrus.Logger {
    l := logrus.New()
    level := logrus.InfoLevel
    if cfg.Level != "" {
        if lv, err := logrus.ParseLevel(strings.ToLower(cfg.Level)); err == nil { level = lv }
    }
    l.SetLevel(level)
    l.SetFormatter(formatter(cfg.Format == "json" || jsonMode.Load()))
    var out io.Writer = os.Stderr
    if cfg.Output == "stdout" { out = os.Stdout }
    l.SetOutput(out)
    return l
}

// SetJSON switches the standard logger between text and JSON output.
func SetJSON(enabled bool) {
    jsonMode.Store(enabled)
    logrus.SetFormatter(formatter(enabled))
}

func formatter(json bool) logrus.Formatter {
    if json {
        return &logrus.JSONFormatter{
            TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
            FieldMap: logrus.FieldMap{
                logrus.FieldKeyTime: "ts",
                logrus.FieldKeyMsg:  "msg",
            },
        }
    }
    return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05", PadLevelText: true}
}

// Component returns l (or the standard logger) tagged with a component field.
func Component(l logrus.FieldLogger, name string) logrus.FieldLogger {
    if l == nil { l = logrus.StandardLogger() }
    return l.WithField("component", name)
}

func Debugf(l logrus.FieldLogger, f string, args ...any) { orStd(l).Debugf(f, args...) }
func Infof(l logrus.FieldLogger, f string, args ...any)  { orStd(l).Infof(f, args...) }
func Warnf(l logrus.FieldLogger, f string, args ...any)  { orStd(l).Warnf(f, args...) }
func Errorf(l logrus.FieldLogger, f string, args ...any) { orStd(l).Errorf(f, args...) }

func orStd(l logrus.FieldLogger) logrus.FieldLogger {
    if l == nil { return logrus.StandardLogger() }
    return l
}
