package health

import "context"

// Pinger is any backend that can answer a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}
