package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of counting one request against a limit.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter counts a request for key and reports whether it may proceed.
type Limiter interface {
	Take(ctx context.Context, key string) (Decision, error)
}
