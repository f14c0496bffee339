package sampling

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vertex-lab/botpop/pkg/classifier"
	mockdb "github.com/vertex-lab/botpop/pkg/database/mock"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/population"
	"github.com/vertex-lab/botpop/pkg/records"
	mockstore "github.com/vertex-lab/botpop/pkg/store/mock"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
	"github.com/vertex-lab/botpop/pkg/walks"
)

// buffers collects the logs of a run.
type buffers struct {
	samples   bytes.Buffer
	scores    bytes.Buffer
	estimates bytes.Buffer
}

func (b *buffers) writer() *records.Writer {
	return &records.Writer{Samples: &b.samples, Scores: &b.scores, Estimates: &b.estimates}
}

func lines(b *bytes.Buffer) int {
	return strings.Count(b.String(), "\n")
}

// setupSampler returns a Sampler walking the mock DB from node A.
func setupSampler(t *testing.T, DBType string, config Config, walkConfig walks.Config) (*Sampler, *mockdb.Database, *mockstore.WalkStore, *buffers) {
	t.Helper()
	DB := mockdb.SetupDB(DBType)
	store := mockstore.NewWalkStore()
	rng := rand.New(rand.NewSource(42))

	walker, err := walks.NewWalker(walkConfig, store, DB, DB, rng, logger.Nop(), mockdb.A)
	require.NoError(t, err)

	adapter, err := classifier.NewAdapter(DB, classifier.DefaultThreshold, logger.Nop())
	require.NoError(t, err)

	buf := &buffers{}
	sampler, err := NewSampler(config, walker, store, adapter, buf.writer(), logger.Nop())
	require.NoError(t, err)
	return sampler, DB, store, buf
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name          string
		config        Config
		expectedError error
	}{
		{name: "no budget", config: Config{}, expectedError: ErrInvalidBudget},
		{name: "both budgets", config: Config{TargetSamples: 10, Duration: time.Minute}, expectedError: ErrInvalidBudget},
		{name: "negative target", config: Config{TargetSamples: -1, Duration: time.Minute}, expectedError: ErrInvalidBudget},
		{name: "negative cut", config: Config{TargetSamples: 10, Cut: -1}, expectedError: models.ErrInvalidCut},
		{name: "target", config: Config{TargetSamples: 10}},
		{name: "duration", config: Config{Duration: time.Hour, Cut: 5}},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			assert.ErrorIs(t, test.config.Validate(), test.expectedError)
		})
	}
}

func TestNewSamplerMissingAdapter(t *testing.T) {
	DB := mockdb.SetupDB("star")
	store := mockstore.NewWalkStore()
	walker, err := walks.NewWalker(walks.NewConfig(), store, DB, DB, rand.New(rand.NewSource(1)), logger.Nop(), mockdb.A)
	require.NoError(t, err)

	_, err = NewSampler(Config{TargetSamples: 1, CalcBotPopulation: true}, walker, store, nil, nil, logger.Nop())
	assert.ErrorIs(t, err, ErrMissingAdapter)

	_, err = NewSampler(Config{TargetSamples: 1}, walker, store, nil, nil, logger.Nop())
	assert.NoError(t, err)
}

func TestRunTarget(t *testing.T) {
	config := Config{TargetSamples: 50, CalcBotPopulation: true}
	sampler, DB, store, buf := setupSampler(t, "star", config, walks.NewConfig())

	result, err := sampler.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Completed, result.Outcome)
	assert.Equal(t, 50, result.Samples)
	assert.Equal(t, int64(50), sampler.Stats.Samples.Value())
	assert.Equal(t, int64(result.Distinct), sampler.Stats.Distinct.Value())
	assert.Equal(t, result.Estimate, sampler.Stats.Estimate.Load())

	// every node is classified once
	assert.Equal(t, 50, lines(&buf.samples))
	assert.Equal(t, result.Distinct, lines(&buf.scores))
	assert.Equal(t, result.Distinct, DB.ScoreCount)
	assert.Len(t, store.ScoreIndex, result.Distinct)
	assert.Equal(t, 50, lines(&buf.estimates))

	// the logs reproduce the running estimate
	samples, err := records.ReadSamples(&buf.samples)
	require.NoError(t, err)
	assert.Equal(t, store.SampleList, samples)

	scores, err := records.ReadScores(&buf.scores)
	require.NoError(t, err)

	sequence, degrees := records.Replay(samples)
	estimates, err := population.Estimate(sequence, classifier.Labels(scores, classifier.DefaultThreshold), degrees, 0)
	require.NoError(t, err)

	written, err := records.ReadEstimates(&buf.estimates)
	require.NoError(t, err)
	assert.InDeltaSlice(t, estimates, written, 1e-12)
	assert.InDelta(t, estimates[len(estimates)-1], result.Estimate, 1e-12)

	assert.Equal(t, 50, result.Summary.Samples)
	assert.Equal(t, result.Distinct, result.Summary.Distinct)
}

func TestRunCut(t *testing.T) {
	config := Config{TargetSamples: 5, CalcBotPopulation: true, Cut: 3}
	sampler, _, _, buf := setupSampler(t, "star", config, walks.NewConfig())

	_, err := sampler.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, lines(&buf.samples))
	assert.Equal(t, 2, lines(&buf.estimates))
}

func TestRunWithoutEstimate(t *testing.T) {
	config := Config{TargetSamples: 5}
	sampler, DB, _, buf := setupSampler(t, "star", config, walks.NewConfig())

	result, err := sampler.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, result.Samples)
	assert.Zero(t, result.Estimate)
	assert.Zero(t, DB.ScoreCount)
	assert.Empty(t, buf.scores.String())
	assert.Empty(t, buf.estimates.String())
}

func TestRunDuration(t *testing.T) {
	config := Config{Duration: 3 * time.Minute}
	sampler, _, _, _ := setupSampler(t, "star", config, walks.NewConfig())

	// every reading of the clock advances it by one minute
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sampler.WithClock(func() time.Time {
		now := clock
		clock = clock.Add(time.Minute)
		return now
	})

	result, err := sampler.Run(context.Background())
	require.NoError(t, err)

	// start at 0m, first sample logged at 1m and checked at 2m, second sample logged at 3m and checked at 4m
	assert.Equal(t, Completed, result.Outcome)
	assert.Equal(t, 2, result.Samples)
}

func TestRunReseed(t *testing.T) {
	config := Config{TargetSamples: 5, CalcBotPopulation: true}
	sampler, _, _, buf := setupSampler(t, "failing-seed", config, walks.NewConfig())

	result, err := sampler.Run(context.Background())
	require.ErrorIs(t, err, models.ErrReseedRequired)
	assert.Zero(t, result.Samples)
	assert.Empty(t, buf.samples.String())
}

func TestRunDanglingSeed(t *testing.T) {
	config := Config{TargetSamples: 5, CalcBotPopulation: true}
	sampler, _, _, _ := setupSampler(t, "one-node", config, walks.NewConfig())

	_, err := sampler.Run(context.Background())
	require.ErrorIs(t, err, models.ErrReseedRequired)
	assert.ErrorIs(t, err, models.ErrDegenerateDegree)
}

func TestRunNoContinuation(t *testing.T) {
	config := Config{TargetSamples: 5, CalcBotPopulation: true}
	walkConfig := walks.Config{MaxResults: 100, MaxQueries: 3, MaxBacktracks: 10}
	sampler, DB, _, buf := setupSampler(t, "protected-neighbor", config, walkConfig)

	result, err := sampler.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, NoContinuation, result.Outcome)
	assert.ErrorIs(t, result.Reason, models.ErrSelectionExhausted)
	assert.Equal(t, 1, result.Samples)
	assert.Equal(t, 3, DB.QueryCount)

	// the sample before the termination is recorded, with the sentinel score
	assert.Equal(t, "1 1 1 1\n", buf.samples.String())
	assert.Equal(t, "1 -1\n", buf.scores.String())
	assert.Equal(t, "0\n", buf.estimates.String())
}

func TestRunInterrupted(t *testing.T) {
	config := Config{TargetSamples: 5}
	sampler, DB, _, _ := setupSampler(t, "star", config, walks.NewConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sampler.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Interrupted, result.Outcome)
	assert.Zero(t, result.Samples)
	assert.Zero(t, DB.FetchCount)
}
