package walks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/vertex-lab/botpop/pkg/metrics"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
)

// State of the Walker.
type State int

const (
	Exploring    State = iota // fetching (or reading from cache) the neighbors of the current node
	Advancing                 // recording the current node and choosing the next one
	Backtracking              // choosing a replacement among the neighbors of the predecessor
	Terminated                // the walk has no continuation
)

func (s State) String() string {
	switch s {
	case Exploring:
		return "exploring"
	case Advancing:
		return "advancing"
	case Backtracking:
		return "backtracking"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

var ErrMissingDependency = errors.New("source, inspector and rng must be non-nil")

// Step is the outcome of a completed step of the walk.
type Step struct {
	// the record of the sampled node
	Sample models.SampleRecord

	// the degree of the sampled node, fixed at its first visit
	Degree int

	// whether this is the first time the node was sampled
	FirstVisit bool

	// whether Sample was recorded, which can happen even if Step() returns an error
	Sampled bool

	// the node the walk will sample next
	Next uint64

	// the number of failed explorations before this sample
	Backtracks int
}

// Walker performs the random walk, one step at a time. It's not safe for concurrent use.
type Walker struct {
	config   Config
	store    models.WalkStore
	cache    *NeighborCache
	selector *Selector
	log      *logger.Aggregate

	state   State
	current uint64
	prev    uint64
	hasPrev bool
	err     error
}

// NewWalker() returns a Walker that will start from the initial node.
func NewWalker(
	config Config,
	store models.WalkStore,
	source models.GraphSource,
	inspector models.Inspector,
	rng *rand.Rand,
	log *logger.Aggregate,
	initial uint64) (*Walker, error) {

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if store == nil {
		return nil, models.ErrNilStorePointer
	}

	if err := store.Validate(); err != nil {
		return nil, err
	}

	if source == nil || inspector == nil || rng == nil {
		return nil, ErrMissingDependency
	}

	return &Walker{
		config:   config,
		store:    store,
		cache:    NewNeighborCache(source, store, config.MaxResults),
		selector: NewSelector(inspector, config.MaxQueries, rng, log),
		log:      log,
		state:    Exploring,
		current:  initial,
	}, nil
}

// State() returns the state of the walker.
func (w *Walker) State() State {
	return w.state
}

// Current() returns the node the walker will sample next.
func (w *Walker) Current() uint64 {
	return w.current
}

// Err() returns the reason of the termination, or nil if the walk is not terminated.
func (w *Walker) Err() error {
	return w.err
}

/*
Step() drives the walk until the current node is sampled and the next one is chosen.

If the current node can't be explored, the walker goes back to the predecessor
and chooses another of its neighbors, until one can be explored. The walk
terminates when:

- the initial node can't be explored: the error wraps ErrReseedRequired.

- no acceptable next node is found: the error wraps ErrNoContinuation.
If the node was sampled before the selection failed, the returned Step contains it.

- the store fails: the error is returned as is.

After termination every call returns the same error.
*/
func (w *Walker) Step(ctx context.Context) (Step, error) {
	var step Step
	var node *models.Explored
	var neighbors []uint64
	var err error

	for {
		switch w.state {
		case Terminated:
			return step, w.err

		case Exploring:
			visited := w.store.IsVisited(ctx, w.current)
			node, neighbors, err = w.cache.EnsureExplored(ctx, w.current, w.prev, w.hasPrev)
			switch {
			case err == nil:
				step.FirstVisit = !visited
				w.state = Advancing

			case !errors.Is(err, models.ErrGraphFetch):
				w.terminate(err)

			case !w.hasPrev:
				w.log.Error("walker: initial node %d can't be explored: %v", w.current, err)
				w.terminate(fmt.Errorf("%w: %w", models.ErrReseedRequired, err))

			default:
				w.log.Warn("walker: %v; backtracking to %d", err, w.prev)
				w.state = Backtracking
			}

		case Backtracking:
			if step.Backtracks >= w.config.MaxBacktracks {
				w.terminate(fmt.Errorf("%w: %w: %d from node %d", models.ErrNoContinuation, models.ErrBacktrackLimit, w.config.MaxBacktracks, w.prev))
				continue
			}

			step.Backtracks++
			metrics.Backtracks.Inc()

			next, err := w.reselect(ctx)
			if err != nil {
				w.terminate(err)
				continue
			}

			w.current = next
			w.state = Exploring

		case Advancing:
			step.Sample = models.SampleRecord{
				NodeID:    node.ID,
				Followers: node.Followers,
				Friends:   node.Friends,
				Neighbors: len(neighbors),
			}
			step.Degree = node.Degree

			if err := w.store.AppendSample(ctx, step.Sample); err != nil {
				w.terminate(err)
				return Step{}, w.err
			}
			step.Sampled = true
			metrics.Steps.Inc()

			next, err := w.selector.Next(ctx, w.current, neighbors, w.store)
			if err != nil {
				if errors.Is(err, models.ErrSelectionExhausted) {
					err = fmt.Errorf("%w: %w", models.ErrNoContinuation, err)
				}
				w.terminate(err)
				return step, w.err
			}

			step.Next = next
			w.prev, w.hasPrev = w.current, true
			w.current = next
			w.state = Exploring
			return step, nil
		}
	}
}

// reselect chooses a replacement among the cached neighbors of the predecessor.
func (w *Walker) reselect(ctx context.Context) (uint64, error) {
	neighbors, err := w.store.Neighbors(ctx, w.prev)
	if err != nil {
		return 0, err
	}

	next, err := w.selector.Next(ctx, w.prev, neighbors, w.store)
	if errors.Is(err, models.ErrSelectionExhausted) {
		return 0, fmt.Errorf("%w: %w", models.ErrNoContinuation, err)
	}
	return next, err
}

func (w *Walker) terminate(err error) {
	w.state = Terminated
	w.err = err
}
