package file

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

func write(t *testing.T, path, body string) {
    t.Helper()
    if err := os.WriteFile(path, []byte(body), 0o644); err != nil { t.Fatal(err) }
}

func TestEnvOverridesFile(t *testing.T) {
    f := filepath.Join(t.TempDir(), "targets.txt")
    write(t, f, "db1\n")

    const envName = "TEST_SCHEMACHECK_TARGETS"
    t.Setenv(envName, "db8:19042, db9")

    got := New(Options{Path: f, Env: envName}).Targets()
    if len(got) != 2 || got[0] != "db8:19042" || got[1] != "db9" {
        t.Fatalf("env override failed, got %#v", got)
    }
}

func TestFileCommentsAndRefresh(t *testing.T) {
    f := filepath.Join(t.TempDir(), "targets.txt")
    write(t, f, "# prod\ndb1\ndb2:19042 # east\n")

    d := New(Options{Path: f, Refresh: 10 * time.Millisecond})
    got := d.Targets()
    if len(got) != 2 || got[0] != "db1" || got[1] != "db2:19042" {
        t.Fatalf("unexpected initial targets: %#v", got)
    }

    write(t, f, "db3,db4\n")
    time.Sleep(15 * time.Millisecond)
    got = d.Targets()
    if len(got) != 2 || got[0] != "db3" || got[1] != "db4" {
        t.Fatalf("expected refreshed targets, got %#v", got)
    }
}

func TestGlobMergesUnique(t *testing.T) {
    dir := t.TempDir()
    write(t, filepath.Join(dir, "a.txt"), "db1\ndb2\n")
    write(t, filepath.Join(dir, "b.txt"), "db2\ndb3\n")

    got := New(Options{Path: filepath.Join(dir, "*.txt")}).Targets()
    want := []string{"db1", "db2", "db3"}
    if len(got) != len(want) {
        t.Fatalf("len mismatch: got %d want %d (%#v)", len(got), len(want), got)
    }
    for i := range want {
        if got[i] != want[i] { t.Fatalf("item %d: got %q want %q", i, got[i], want[i]) }
    }
}

func TestMissingFileKeepsLastList(t *testing.T) {
    f := filepath.Join(t.TempDir(), "targets.txt")
    write(t, f, "db1\n")
    d := New(Options{Path: f, Refresh: time.Millisecond})
    if got := d.Targets(); len(got) != 1 { t.Fatalf("unexpected: %#v", got) }
    if err := os.Remove(f); err != nil { t.Fatal(err) }
    time.Sleep(2 * time.Millisecond)
    if got := d.Targets(); len(got) != 1 || got[0] != "db1" { t.Fatalf("expected last good list, got %#v", got) }
}
