/*
The population package estimates the fraction of bots from the sequence of
nodes visited by a random walk.

A simple random walk on an undirected graph visits each node with probability
proportional to its degree. Weighting every visit by 1/degree removes that bias,
so the estimate after i steps is

	estimate[i] = sum_{j=cut..i} isBot(v_j)/d(v_j) / sum_{j=cut..i} 1/d(v_j)

where the first cut steps are discarded as burn-in.

# REFERENCES

[1] L. Lovász; "Random Walks on Graphs: A Survey"
URL: https://web.cs.elte.hu/~lovasz/erdos.pdf
*/
package population

import (
	"fmt"

	"github.com/vertex-lab/botpop/pkg/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

/*
CumulativeSums() returns, for each step i >= cut of the sequence, the running sums

- total[i-cut] = sum 1/d(v_j)

- bot[i-cut] = sum isBot(v_j)/d(v_j)

Both are non-decreasing and bot[i] <= total[i]. If cut >= len(sequence) both are empty.
*/
func CumulativeSums(
	sequence []uint64,
	labels map[uint64]bool,
	degrees map[uint64]int,
	cut int) (total, bot []float64, err error) {

	if cut < 0 {
		return nil, nil, fmt.Errorf("%w: %d", models.ErrInvalidCut, cut)
	}

	if cut >= len(sequence) {
		return []float64{}, []float64{}, nil
	}

	size := len(sequence) - cut
	total = make([]float64, size)
	bot = make([]float64, size)

	for i, nodeID := range sequence[cut:] {
		weight, err := inverseDegree(nodeID, degrees)
		if err != nil {
			return nil, nil, fmt.Errorf("step %d: %w", cut+i, err)
		}

		isBot, exists := labels[nodeID]
		if !exists {
			return nil, nil, fmt.Errorf("step %d: %w: node %d", cut+i, models.ErrLabelNotFound, nodeID)
		}

		total[i] = weight
		if isBot {
			bot[i] = weight
		}
	}

	floats.CumSum(total, total)
	floats.CumSum(bot, bot)
	return total, bot, nil
}

// Estimate() returns the running estimate of the bot fraction, one value for each
// step i >= cut of the sequence. If cut >= len(sequence) the result is empty.
func Estimate(
	sequence []uint64,
	labels map[uint64]bool,
	degrees map[uint64]int,
	cut int) ([]float64, error) {

	total, bot, err := CumulativeSums(sequence, labels, degrees, cut)
	if err != nil {
		return nil, err
	}

	return floats.DivTo(make([]float64, len(total)), bot, total), nil
}

// Running computes the same estimate as Estimate(), one step at a time.
type Running struct {
	cut   int
	steps int
	total float64
	bot   float64
}

// NewRunning() returns a Running estimate that ignores the first cut steps.
func NewRunning(cut int) (*Running, error) {
	if cut < 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidCut, cut)
	}
	return &Running{cut: cut}, nil
}

// Add() accounts for the next step of the walk. It returns the updated estimate
// and true, or false while the step is still part of the burn-in.
// A non-positive degree returns ErrDegenerateDegree and leaves the sums untouched.
func (r *Running) Add(degree int, isBot bool) (float64, bool, error) {
	if degree <= 0 {
		return 0, false, fmt.Errorf("%w: degree %d at step %d", models.ErrDegenerateDegree, degree, r.steps)
	}

	r.steps++
	if r.steps <= r.cut {
		return 0, false, nil
	}

	weight := 1.0 / float64(degree)
	r.total += weight
	if isBot {
		r.bot += weight
	}

	return r.bot / r.total, true, nil
}

// Estimate() returns the current estimate, or 0 if no step after the cut was added.
func (r *Running) Estimate() float64 {
	if r.total == 0 {
		return 0
	}
	return r.bot / r.total
}

// Steps() returns the number of steps added, burn-in included.
func (r *Running) Steps() int { return r.steps }

// Total() returns the sum of 1/degree over the steps after the cut.
func (r *Running) Total() float64 { return r.total }

// Bot() returns the sum of 1/degree over the bot steps after the cut.
func (r *Running) Bot() float64 { return r.bot }

// Summary describes the degrees met by a walk.
type Summary struct {
	Samples  int
	Distinct int

	// the arithmetic mean is biased toward hubs, the harmonic mean is the
	// mean degree of the graph when the walk is stationary.
	MeanDegree         float64
	HarmonicMeanDegree float64
}

// Summarize() returns the Summary of the sequence.
func Summarize(sequence []uint64, degrees map[uint64]int) (Summary, error) {
	summary := Summary{Samples: len(sequence), Distinct: len(degrees)}
	if len(sequence) == 0 {
		return summary, nil
	}

	values := make([]float64, len(sequence))
	for i, nodeID := range sequence {
		weight, err := inverseDegree(nodeID, degrees)
		if err != nil {
			return Summary{}, fmt.Errorf("step %d: %w", i, err)
		}
		values[i] = 1 / weight
	}

	summary.MeanDegree = stat.Mean(values, nil)
	summary.HarmonicMeanDegree = stat.HarmonicMean(values, nil)
	return summary, nil
}

func inverseDegree(nodeID uint64, degrees map[uint64]int) (float64, error) {
	degree, exists := degrees[nodeID]
	if !exists {
		return 0, fmt.Errorf("%w: node %d", models.ErrDegreeNotFound, nodeID)
	}

	if degree <= 0 {
		return 0, fmt.Errorf("%w: node %d has degree %d", models.ErrDegenerateDegree, nodeID, degree)
	}

	return 1.0 / float64(degree), nil
}
