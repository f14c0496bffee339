package population

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vertex-lab/botpop/pkg/models"
)

const (
	A uint64 = iota + 1
	B
	C
	D
)

// the graph A-B, B-C, B-D with B the only bot, walked as A,B,C,B,D.
var (
	starSequence = []uint64{A, B, C, B, D}
	starDegrees  = map[uint64]int{A: 1, B: 3, C: 1, D: 1}
	starLabels   = map[uint64]bool{A: false, B: true, C: false, D: false}
)

func TestCumulativeSumsStar(t *testing.T) {
	total, bot, err := CumulativeSums(starSequence, starLabels, starDegrees, 0)
	require.NoError(t, err)

	third := 1.0 / 3.0
	expectedTotal := []float64{1, 1 + third, 2 + third, 2 + 2*third, 3 + 2*third}
	expectedBot := []float64{0, third, third, 2 * third, 2 * third}

	require.InDeltaSlice(t, expectedTotal, total, 1e-12)
	require.InDeltaSlice(t, expectedBot, bot, 1e-12)
}

func TestEstimateStar(t *testing.T) {
	estimates, err := Estimate(starSequence, starLabels, starDegrees, 0)
	require.NoError(t, err)

	expected := []float64{0, 0.25, 1.0 / 7.0, 0.25, 2.0 / 11.0}
	require.InDeltaSlice(t, expected, estimates, 1e-12)
}

func TestEstimate(t *testing.T) {
	testCases := []struct {
		name              string
		sequence          []uint64
		labels            map[uint64]bool
		degrees           map[uint64]int
		cut               int
		expectedEstimates []float64
		expectedError     error
	}{
		{
			name:              "empty sequence",
			sequence:          []uint64{},
			expectedEstimates: []float64{},
		},
		{
			name:              "cut equal to length",
			sequence:          starSequence,
			labels:            starLabels,
			degrees:           starDegrees,
			cut:               5,
			expectedEstimates: []float64{},
		},
		{
			name:              "cut bigger than length",
			sequence:          starSequence,
			labels:            starLabels,
			degrees:           starDegrees,
			cut:               50,
			expectedEstimates: []float64{},
		},
		{
			name:              "cut discards the burn-in",
			sequence:          starSequence,
			labels:            starLabels,
			degrees:           starDegrees,
			cut:               3,
			expectedEstimates: []float64{1, 0.25},
		},
		{
			name:          "negative cut",
			sequence:      starSequence,
			labels:        starLabels,
			degrees:       starDegrees,
			cut:           -1,
			expectedError: models.ErrInvalidCut,
		},
		{
			name:          "zero degree",
			sequence:      []uint64{A, B},
			labels:        starLabels,
			degrees:       map[uint64]int{A: 1, B: 0},
			expectedError: models.ErrDegenerateDegree,
		},
		{
			name:          "missing degree",
			sequence:      []uint64{A, B},
			labels:        starLabels,
			degrees:       map[uint64]int{A: 1},
			expectedError: models.ErrDegreeNotFound,
		},
		{
			name:          "missing label",
			sequence:      []uint64{A, B},
			labels:        map[uint64]bool{A: false},
			degrees:       starDegrees,
			expectedError: models.ErrLabelNotFound,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			estimates, err := Estimate(test.sequence, test.labels, test.degrees, test.cut)
			if !errors.Is(err, test.expectedError) {
				t.Fatalf("Estimate(): expected %v, got %v", test.expectedError, err)
			}

			if test.expectedError == nil {
				require.InDeltaSlice(t, test.expectedEstimates, estimates, 1e-12)
				require.Len(t, estimates, max(len(test.sequence)-test.cut, 0))
			}
		})
	}
}

func TestRunningMatchesEstimate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const nodes = 50

	degrees := make(map[uint64]int, nodes)
	labels := make(map[uint64]bool, nodes)
	for ID := uint64(0); ID < nodes; ID++ {
		degrees[ID] = 1 + rng.Intn(20)
		labels[ID] = rng.Float64() < 0.3
	}

	sequence := make([]uint64, 1000)
	for i := range sequence {
		sequence[i] = uint64(rng.Intn(nodes))
	}

	for _, cut := range []int{0, 10, 999, 1000} {
		expected, err := Estimate(sequence, labels, degrees, cut)
		require.NoError(t, err)

		running, err := NewRunning(cut)
		require.NoError(t, err)

		var estimates []float64
		for _, ID := range sequence {
			estimate, ok, err := running.Add(degrees[ID], labels[ID])
			require.NoError(t, err)
			if ok {
				estimates = append(estimates, estimate)
			}
		}

		require.Len(t, estimates, len(expected))
		if len(expected) > 0 {
			require.InDeltaSlice(t, expected, estimates, 1e-9)
			require.InDelta(t, expected[len(expected)-1], running.Estimate(), 1e-9)
		}
		require.Equal(t, len(sequence), running.Steps())
	}
}

func TestRunningMonotoneSums(t *testing.T) {
	rng := rand.New(rand.NewSource(69))
	running, err := NewRunning(0)
	require.NoError(t, err)

	prevTotal, prevBot := 0.0, 0.0
	for i := 0; i < 500; i++ {
		_, _, err := running.Add(1+rng.Intn(100), rng.Intn(2) == 0)
		require.NoError(t, err)

		if running.Total() < prevTotal || running.Bot() < prevBot {
			t.Fatalf("step %d: sums decreased from (%v, %v) to (%v, %v)", i, prevTotal, prevBot, running.Total(), running.Bot())
		}
		if running.Bot() > running.Total() {
			t.Fatalf("step %d: bot sum %v bigger than total %v", i, running.Bot(), running.Total())
		}
		prevTotal, prevBot = running.Total(), running.Bot()
	}
}

func TestRunningDegenerateDegree(t *testing.T) {
	running, err := NewRunning(0)
	require.NoError(t, err)

	_, _, err = running.Add(2, true)
	require.NoError(t, err)

	_, ok, err := running.Add(0, false)
	require.ErrorIs(t, err, models.ErrDegenerateDegree)
	require.False(t, ok)

	require.Equal(t, 1, running.Steps())
	require.InDelta(t, 1.0, running.Estimate(), 1e-12)
}

func TestNewRunningInvalidCut(t *testing.T) {
	_, err := NewRunning(-3)
	require.ErrorIs(t, err, models.ErrInvalidCut)
}

// When nodes are drawn with probability proportional to their degree (the
// stationary distribution of the walk), the estimate converges to the true fraction.
func TestEstimateConvergence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const nodes = 200

	degrees := make(map[uint64]int, nodes)
	labels := make(map[uint64]bool, nodes)
	cumulative := make([]int, nodes)
	bots, sum := 0, 0

	for ID := uint64(0); ID < nodes; ID++ {
		// bots have higher degrees, so an unweighted average would be biased
		isBot := ID%4 == 0
		degree := 1 + rng.Intn(10)
		if isBot {
			degree += 20
			bots++
		}

		degrees[ID] = degree
		labels[ID] = isBot
		sum += degree
		cumulative[ID] = sum
	}

	sequence := make([]uint64, 200000)
	for i := range sequence {
		r := rng.Intn(sum)
		ID := 0
		for cumulative[ID] <= r {
			ID++
		}
		sequence[i] = uint64(ID)
	}

	estimates, err := Estimate(sequence, labels, degrees, 0)
	require.NoError(t, err)

	trueFraction := float64(bots) / nodes
	require.InDelta(t, trueFraction, estimates[len(estimates)-1], 0.02)
}

func TestSummarize(t *testing.T) {
	summary, err := Summarize(starSequence, starDegrees)
	require.NoError(t, err)

	require.Equal(t, 5, summary.Samples)
	require.Equal(t, 4, summary.Distinct)
	require.InDelta(t, 9.0/5.0, summary.MeanDegree, 1e-12)
	require.InDelta(t, 5.0/(3+2.0/3.0), summary.HarmonicMeanDegree, 1e-12)

	_, err = Summarize([]uint64{A, 99}, starDegrees)
	require.ErrorIs(t, err, models.ErrDegreeNotFound)
}
