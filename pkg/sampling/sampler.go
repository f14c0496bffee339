/*
The sampling package runs a walk until a target number of samples is reached
or a time budget expires, writing the sample log, the score log and the
running estimate of the bot population as it goes.

It also replays the logs of a past walk, to compute the estimate again with a
different threshold or cut.
*/
package sampling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vertex-lab/botpop/pkg/classifier"
	"github.com/vertex-lab/botpop/pkg/metrics"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/population"
	"github.com/vertex-lab/botpop/pkg/records"
	"github.com/vertex-lab/botpop/pkg/utils/counter"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
	"github.com/vertex-lab/botpop/pkg/walks"
)

var ErrInvalidBudget = errors.New("exactly one of target samples and duration should be positive")
var ErrMissingAdapter = errors.New("a classifier adapter is required to estimate the bot population")

// The configuration parameters of a run.
type Config struct {
	// the run stops after this many samples. Zero means no target.
	TargetSamples int

	// the run stops after this much time. Zero means no time budget.
	Duration time.Duration

	// whether to classify the sampled nodes and estimate the bot population.
	CalcBotPopulation bool

	// the number of initial samples excluded from the estimate.
	Cut int
}

// Validate() returns the appropriate error if the budget or the cut are invalid.
func (c Config) Validate() error {
	if (c.TargetSamples > 0) == (c.Duration > 0) || c.TargetSamples < 0 || c.Duration < 0 {
		return ErrInvalidBudget
	}

	if c.Cut < 0 {
		return fmt.Errorf("%w: %d", models.ErrInvalidCut, c.Cut)
	}

	return nil
}

func (c Config) Print() {
	fmt.Println("Run:")
	if c.TargetSamples > 0 {
		fmt.Printf("  TargetSamples: %d\n", c.TargetSamples)
	} else {
		fmt.Printf("  Duration: %v\n", c.Duration)
	}
	fmt.Printf("  CalcBotPopulation: %v\n", c.CalcBotPopulation)
	fmt.Printf("  Cut: %d\n", c.Cut)
}

// Stats are updated by the run and can be read concurrently.
type Stats struct {
	Samples  *xsync.Counter
	Distinct *xsync.Counter
	Estimate *counter.Float
}

func NewStats() Stats {
	return Stats{
		Samples:  xsync.NewCounter(),
		Distinct: xsync.NewCounter(),
		Estimate: counter.NewFloatCounter(),
	}
}

// Outcome is the reason a run stopped without errors.
type Outcome int

const (
	Completed      Outcome = iota // the target or the time budget was reached
	Interrupted                   // the context was cancelled
	NoContinuation                // the walk could not continue
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Interrupted:
		return "interrupted"
	case NoContinuation:
		return "no continuation"
	default:
		return "unknown"
	}
}

// Result describes a finished run.
type Result struct {
	Outcome Outcome

	// why the walk could not continue, only when Outcome is NoContinuation.
	Reason error

	Samples  int
	Distinct int

	// the last value of the running estimate, zero if not computed.
	Estimate float64

	Summary population.Summary
}

// Sampler drives a Walker and records what it samples.
type Sampler struct {
	config  Config
	walker  *walks.Walker
	store   models.WalkStore
	adapter *classifier.Adapter
	writer  *records.Writer
	log     *logger.Aggregate
	now     func() time.Time

	Stats Stats
}

// NewSampler() returns a Sampler. The adapter can be nil only if the bot
// population is not calculated; a nil writer discards every line.
func NewSampler(
	config Config,
	walker *walks.Walker,
	store models.WalkStore,
	adapter *classifier.Adapter,
	writer *records.Writer,
	log *logger.Aggregate) (*Sampler, error) {

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if walker == nil {
		return nil, errors.New("nil walker")
	}

	if store == nil {
		return nil, models.ErrNilStorePointer
	}

	if err := store.Validate(); err != nil {
		return nil, err
	}

	if config.CalcBotPopulation && adapter == nil {
		return nil, ErrMissingAdapter
	}

	if writer == nil {
		writer = &records.Writer{}
	}

	return &Sampler{
		config:  config,
		walker:  walker,
		store:   store,
		adapter: adapter,
		writer:  writer,
		log:     log,
		now:     time.Now,
		Stats:   NewStats(),
	}, nil
}

// WithClock() sets the function used to read the current time.
func (s *Sampler) WithClock(now func() time.Time) *Sampler {
	s.now = now
	return s
}

/*
Run() performs the walk one step at a time. After every step it writes the sample,
classifies the node the first time it's met (if CalcBotPopulation) and writes the
updated estimate. The target and the deadline are checked after every step.

Cancelling ctx stops the run between two steps: calls to the social network are
never interrupted. The run stops without errors when the walk has no
continuation; it returns an error wrapping ErrReseedRequired when the initial
node can't be used, and any store or write error as is.
*/
func (s *Sampler) Run(ctx context.Context) (Result, error) {
	running, err := population.NewRunning(s.config.Cut)
	if err != nil {
		return Result{}, err
	}

	var result Result
	var sequence []uint64
	degrees := make(map[uint64]int)

	boundary := context.WithoutCancel(ctx)
	deadline := s.now().Add(s.config.Duration)
	s.log.Info("starting the walk from %d", s.walker.Current())

	for {
		if ctx.Err() != nil {
			s.log.Warn("walk interrupted after %d samples: %v", result.Samples, context.Cause(ctx))
			result.Outcome = Interrupted
			break
		}

		step, stepErr := s.walker.Step(boundary)
		if step.Sampled {
			if err := s.record(boundary, step, &result, running); err != nil {
				return result, err
			}

			sequence = append(sequence, step.Sample.NodeID)
			if _, exists := degrees[step.Sample.NodeID]; !exists {
				degrees[step.Sample.NodeID] = step.Degree
			}
		}

		if stepErr != nil {
			if !errors.Is(stepErr, models.ErrNoContinuation) {
				return result, stepErr
			}

			s.log.Warn("the walk has no continuation after %d samples: %v", result.Samples, stepErr)
			result.Outcome = NoContinuation
			result.Reason = stepErr
			break
		}

		if s.config.TargetSamples > 0 && result.Samples >= s.config.TargetSamples {
			break
		}

		if s.config.Duration > 0 && !s.now().Before(deadline) {
			break
		}
	}

	summary, err := population.Summarize(sequence, degrees)
	if err != nil {
		return result, err
	}

	result.Summary = summary
	s.log.Info("walk %v: %d samples, %d distinct nodes", result.Outcome, result.Samples, result.Distinct)
	return result, nil
}

// record writes the sample, its score and the updated estimate.
func (s *Sampler) record(ctx context.Context, step walks.Step, result *Result, running *population.Running) error {
	nodeID := step.Sample.NodeID
	if step.Degree <= 0 {
		return fmt.Errorf("%w: %w: node %d has no neighbors", models.ErrReseedRequired, models.ErrDegenerateDegree, nodeID)
	}

	result.Samples++
	s.Stats.Samples.Inc()
	if step.FirstVisit {
		result.Distinct++
		s.Stats.Distinct.Inc()
	}

	if err := s.writer.WriteSample(step.Sample); err != nil {
		return err
	}
	s.log.WithNode(nodeID).Info("Sample %d at %s (%d)", result.Samples, s.now().Format(time.DateTime), nodeID)

	if !s.config.CalcBotPopulation {
		return nil
	}

	score, err := s.score(ctx, nodeID)
	if err != nil {
		return err
	}

	estimate, ok, err := running.Add(step.Degree, s.adapter.Label(score))
	if err != nil {
		return err
	}

	if !ok {
		return nil
	}

	result.Estimate = estimate
	s.Stats.Estimate.Store(estimate)
	metrics.BotPopulation.Set(estimate)
	return s.writer.WriteEstimate(estimate)
}

// score returns the stored score of nodeID, classifying it if it has none.
func (s *Sampler) score(ctx context.Context, nodeID uint64) (float64, error) {
	score, err := s.store.Score(ctx, nodeID)
	if err == nil {
		return score, nil
	}

	if !errors.Is(err, models.ErrScoreNotFound) {
		return 0, err
	}

	// a classification error is informative only: the score is the sentinel
	score, _ = s.adapter.Score(ctx, nodeID)
	if err := s.store.SetScore(ctx, nodeID, score); err != nil {
		return 0, err
	}

	if err := s.writer.WriteScore(nodeID, score); err != nil {
		return 0, err
	}

	return score, nil
}
