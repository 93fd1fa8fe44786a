package limiters

import (
	"context"
	"time"

	"github.com/ispcompare/authcore/internal/rate"
)

// Policy is a consume-up-front binding: every attempt charges the budget
// before the guarded operation runs.
type Policy struct {
	Prefix      string
	MaxAttempts int
	Window      time.Duration
}

// Key builds the Redis key for one identity under this policy.
func (p Policy) Key(identity string) string {
	return p.Prefix + ":" + identity
}

// Consume charges one attempt for identity and reports whether it was
// admitted along with the budget left in the window.
func (p Policy) Consume(ctx context.Context, limiter *rate.Limiter, identity string) (bool, int, error) {
	return limiter.CheckAndConsume(ctx, p.Key(identity), p.MaxAttempts, p.Window)
}
