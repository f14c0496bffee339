// The throttle package limits the rate of the calls to the social network,
// which enforces its own rate limits on followers, friends and profile lookups.
package throttle

import (
	"context"
	"fmt"

	"github.com/vertex-lab/botpop/pkg/models"
	"golang.org/x/time/rate"
)

// Limiter wraps a GraphSource and an Inspector, waiting on a shared
// rate.Limiter before every call.
type Limiter struct {
	source    models.GraphSource
	inspector models.Inspector
	limiter   *rate.Limiter
}

// New() returns a Limiter that allows at most perSecond calls per second.
// A non-positive perSecond disables the limit.
func New(source models.GraphSource, inspector models.Inspector, perSecond float64) *Limiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &Limiter{
		source:    source,
		inspector: inspector,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Limit() returns the maximum number of calls per second.
func (l *Limiter) Limit() rate.Limit {
	return l.limiter.Limit()
}

func (l *Limiter) wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func (l *Limiter) Followers(ctx context.Context, nodeID uint64, limit int) ([]uint64, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.source.Followers(ctx, nodeID, limit)
}

func (l *Limiter) Friends(ctx context.Context, nodeID uint64, limit int) ([]uint64, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.source.Friends(ctx, nodeID, limit)
}

func (l *Limiter) IsProtected(ctx context.Context, nodeID uint64) (bool, error) {
	if err := l.wait(ctx); err != nil {
		return false, err
	}
	return l.inspector.IsProtected(ctx, nodeID)
}
