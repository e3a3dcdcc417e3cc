package watch

import (
    "time"

    "github.com/amirimatin/go-schemacheck/pkg/schema"
)

// TargetStatus is the outcome of the most recent check of one target.
type TargetStatus struct {
    Target    string            `json:"target"`
    CheckedAt time.Time         `json:"checkedAt"`
    Duration  time.Duration     `json:"durationNs"`
    Agrees    bool              `json:"agrees"`
    Versions  schema.VersionMap `json:"versions,omitempty"`
    Distinct  []string          `json:"distinct,omitempty"`
    Error     string            `json:"error,omitempty"`
    ErrorKind string            `json:"errorKind,omitempty"`
}

// OK reports whether the check succeeded and agreed.
func (t TargetStatus) OK() bool { return t.Error == "" && t.Agrees }

// Snapshot is a JSON-serializable view of the monitor suitable for status
// endpoints and tooling.
type Snapshot struct {
    // Healthy is true when every checked target agrees.
    Healthy  bool           `json:"healthy"`
    Rounds   uint64         `json:"rounds"`
    Targets  []TargetStatus `json:"targets"`
    Warnings []string       `json:"warnings,omitempty"`
}
