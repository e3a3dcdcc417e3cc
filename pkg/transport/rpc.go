package transport

import "context"

// StatusFunc returns a JSON-encoded watch status snapshot for /status.
// Using []byte avoids import cycles on watch types.
type StatusFunc func(ctx context.Context) ([]byte, error)

// CheckRequest asks a running monitor to check one target on demand.
type CheckRequest struct {
    Host string `json:"host"`
    Port int    `json:"port,omitempty"`
}

// CheckResponse carries the verdict, or Error when the check failed.
// ErrorKind is one of resolution|connection|query|acquisition|other.
type CheckResponse struct {
    Target    string            `json:"target"`
    Agrees    bool              `json:"agrees"`
    Versions  map[string]string `json:"versions,omitempty"`
    Error     string            `json:"error,omitempty"`
    ErrorKind string            `json:"errorKind,omitempty"`
}

// CheckFunc runs a check for the management endpoints.
type CheckFunc func(ctx context.Context, req CheckRequest) (CheckResponse, error)

// RPCServer exposes management endpoints (status, check, health, metrics).
type RPCServer interface {
    Start(ctx context.Context, status StatusFunc, check CheckFunc) error
    Addr() string
    Stop(ctx context.Context) error
}

// RPCClient calls the management endpoints of a running monitor using the
// chosen protocol (HTTP/JSON or gRPC JSON codec).
type RPCClient interface {
    GetStatus(ctx context.Context, addr string) ([]byte, error)
    PostCheck(ctx context.Context, addr string, req CheckRequest) (CheckResponse, error)
}
