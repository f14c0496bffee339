package walks

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/vertex-lab/botpop/pkg/metrics"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
)

// Selector picks the next node of the walk among the neighbors of the current one.
type Selector struct {
	inspector  models.Inspector
	maxQueries int
	rng        *rand.Rand
	log        *logger.Aggregate
}

// NewSelector() returns a Selector. The rng is the only source of randomness
// of the walk, so a seeded rng makes the walk reproducible.
func NewSelector(inspector models.Inspector, maxQueries int, rng *rand.Rand, log *logger.Aggregate) *Selector {
	return &Selector{
		inspector:  inspector,
		maxQueries: maxQueries,
		rng:        rng,
		log:        log,
	}
}

/*
Next() draws uniformly (with replacement) from the neighbors of current until
it finds an acceptable node:

- a visited node is accepted right away, since it was explored before.

- an unvisited node costs one visibility query, and is accepted if not protected.

A failed query counts as a query and the drawn node is not accepted.
After maxQueries queries without success, or if neighbors is empty, it returns
an error wrapping ErrSelectionExhausted.
*/
func (s *Selector) Next(
	ctx context.Context,
	current uint64,
	neighbors []uint64,
	visited models.VisitedRegistry) (uint64, error) {

	if len(neighbors) == 0 {
		metrics.SelectionExhausted.Inc()
		return 0, fmt.Errorf("%w: node %d has no neighbors", models.ErrSelectionExhausted, current)
	}

	queries := 0
	for {
		candidate := neighbors[s.rng.Intn(len(neighbors))]
		if visited.IsVisited(ctx, candidate) {
			return candidate, nil
		}

		queries++
		metrics.SelectionQueries.Inc()

		protected, err := s.inspector.IsProtected(ctx, candidate)
		switch {
		case err != nil:
			s.log.Warn("selector: visibility query for %d failed: %v", candidate, err)

		case !protected:
			return candidate, nil
		}

		if queries >= s.maxQueries {
			metrics.SelectionExhausted.Inc()
			return 0, fmt.Errorf("%w: %d queries from node %d", models.ErrSelectionExhausted, queries, current)
		}
	}
}
