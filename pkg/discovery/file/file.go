package file

import (
    "bufio"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    "github.com/amirimatin/go-schemacheck/pkg/discovery"
)

// Options configures file/ENV-based target discovery.
type Options struct {
    // Path (or glob) of files listing targets, one per line or comma
    // separated. '#' starts a comment.
    Path string
    // Env names a variable holding a CSV target list; when set and
    // non-empty it overrides the files.
    Env string
    // Refresh is the maximum cache age; defaults to 5s.
    Refresh time.Duration
}

type impl struct {
    opts  Options
    mu    sync.Mutex
    last  time.Time
    cache []string
}

// New returns a Discovery reading targets from files or the environment.
func New(opts Options) discovery.Discovery {
    if opts.Refresh <= 0 { opts.Refresh = 5 * time.Second }
    return &impl{opts: opts}
}

func (i *impl) Targets() []string {
    if i.opts.Env != "" {
        if v := strings.TrimSpace(os.Getenv(i.opts.Env)); v != "" {
            return discovery.Clean(strings.Split(v, ","))
        }
    }
    i.mu.Lock()
    defer i.mu.Unlock()
    if i.opts.Path == "" { return nil }
    if i.cache != nil && time.Since(i.last) < i.opts.Refresh {
        return append([]string(nil), i.cache...)
    }
    matches, err := filepath.Glob(i.opts.Path)
    if err != nil || len(matches) == 0 {
        // keep serving the last good list when files disappear
        return append([]string(nil), i.cache...)
    }
    var all []string
    for _, m := range matches { all = append(all, loadFile(m)...) }
    i.cache = discovery.Clean(all)
    i.last = time.Now()
    return append([]string(nil), i.cache...)
}

func loadFile(path string) []string {
    f, err := os.Open(path)
    if err != nil { return nil }
    defer f.Close()
    var out []string
    s := bufio.NewScanner(f)
    for s.Scan() {
        line := s.Text()
        if i := strings.Index(line, "#"); i >= 0 { line = line[:i] }
        out = append(out, strings.Split(line, ",")...)
    }
    if s.Err() != nil { return nil }
    return out
}
