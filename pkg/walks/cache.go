package walks

import (
	"context"
	"errors"
	"fmt"

	"github.com/vertex-lab/botpop/pkg/metrics"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/utils/sliceutils"
)

// NeighborCache fetches the neighbors of each node at most once per walk.
type NeighborCache struct {
	source     models.GraphSource
	store      models.WalkStore
	maxResults int
}

func NewNeighborCache(source models.GraphSource, store models.WalkStore, maxResults int) *NeighborCache {
	return &NeighborCache{
		source:     source,
		store:      store,
		maxResults: maxResults,
	}
}

/*
EnsureExplored() returns what is known about nodeID and its sorted neighbor set.
The predecessor prev (if hasPrev) is always part of the neighbor set, so the
walk can go back to where it came from.

If nodeID was never explored, its followers and friends are fetched and their
union (plus prev) is stored as its neighbor set. The size of this set is the
degree of nodeID, which never changes afterwards.
If any fetch fails, an error wrapping ErrGraphFetch is returned and the store
is left untouched.

If nodeID was already explored, no fetch happens: prev is added to the cached
neighbor set and the cached values are returned.
*/
func (c *NeighborCache) EnsureExplored(
	ctx context.Context,
	nodeID uint64,
	prev uint64,
	hasPrev bool) (*models.Explored, []uint64, error) {

	if c.store.IsVisited(ctx, nodeID) {
		return c.cached(ctx, nodeID, prev, hasPrev)
	}

	followers, err := c.source.Followers(ctx, nodeID, c.maxResults)
	if err != nil {
		metrics.FetchFailures.WithLabelValues("followers").Inc()
		return nil, nil, fmt.Errorf("%w: followers of %d: %w", models.ErrGraphFetch, nodeID, err)
	}

	friends, err := c.source.Friends(ctx, nodeID, c.maxResults)
	if err != nil {
		metrics.FetchFailures.WithLabelValues("friends").Inc()
		return nil, nil, fmt.Errorf("%w: friends of %d: %w", models.ErrGraphFetch, nodeID, err)
	}

	neighbors := sliceutils.Union(followers, friends)
	if hasPrev {
		neighbors, _ = sliceutils.Insert(neighbors, prev)
	}

	node := models.Explored{
		ID:        nodeID,
		Followers: len(followers),
		Friends:   len(friends),
		Degree:    len(neighbors),
	}

	err = c.store.Explore(ctx, node, neighbors)
	if errors.Is(err, models.ErrNodeAlreadyExplored) {
		// the store missed the visit earlier, the first exploration holds
		return c.cached(ctx, nodeID, prev, hasPrev)
	}

	if err != nil {
		return nil, nil, err
	}

	metrics.ExploredNodes.Inc()
	return &node, neighbors, nil
}

func (c *NeighborCache) cached(
	ctx context.Context,
	nodeID uint64,
	prev uint64,
	hasPrev bool) (*models.Explored, []uint64, error) {

	if hasPrev {
		if err := c.store.AddNeighbor(ctx, nodeID, prev); err != nil {
			return nil, nil, err
		}
	}

	node, err := c.store.Explored(ctx, nodeID)
	if err != nil {
		return nil, nil, err
	}

	neighbors, err := c.store.Neighbors(ctx, nodeID)
	if err != nil {
		return nil, nil, err
	}

	return node, neighbors, nil
}
