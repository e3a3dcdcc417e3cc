package logutil

import (
    "bytes"
    "encoding/json"
    "testing"

    "github.com/sirupsen/logrus"
)

func TestNewLevelFallback(t *testing.T) {
    l := New(Config{Level: "bogus"})
    if l.GetLevel() != logrus.InfoLevel { t.Fatalf("level = %v, want info", l.GetLevel()) }
    l = New(Config{Level: "DEBUG"})
    if l.GetLevel() != logrus.DebugLevel { t.Fatalf("level = %v, want debug", l.GetLevel()) }
}

func TestJSONComponentField(t *testing.T) {
    l := New(Config{Format: "json"})
    var buf bytes.Buffer
    l.SetOutput(&buf)
    Infof(Component(l, "checker"), "hello %s", "world")
    var evt map[string]any
    if err := json.Unmarshal(buf.Bytes(), &evt); err != nil { t.Fatalf("decode: %v (%q)", err, buf.String()) }
    if evt["msg"] != "hello world" || evt["component"] != "checker" || evt["level"] != "info" {
        t.Fatalf("unexpected event: %#v", evt)
    }
}

func TestNilLoggerUsesStandard(t *testing.T) {
    var buf bytes.Buffer
    std := logrus.StandardLogger()
    prev := std.Out
    std.SetOutput(&buf)
    defer std.SetOutput(prev)
    Warnf(nil, "careful")
    if !bytes.Contains(buf.Bytes(), []byte("careful")) { t.Fatalf("expected output on standard logger, got %q", buf.String()) }
}
