package sampling

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vertex-lab/botpop/pkg/classifier"
	"github.com/vertex-lab/botpop/pkg/population"
	"github.com/vertex-lab/botpop/pkg/records"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
)

// Recomputed describes the replay of a past walk.
type Recomputed struct {
	// the estimate for every step after the cut
	Estimates []float64

	// the path of the estimate log written by the replay
	EstimatePath string

	// the path of the score log written by the replay, empty if it was not written
	BotScorePath string

	Summary population.Summary
}

// Final() returns the last value of the estimate, or zero if there is none.
func (r Recomputed) Final() float64 {
	if len(r.Estimates) == 0 {
		return 0
	}
	return r.Estimates[len(r.Estimates)-1]
}

/*
Recompute() replays the logs of a past walk and writes its estimate log, using the
threshold of the adapter and the cut.

- If path is a sample log, every distinct node is classified again (in order of
first appearance) and a new score log is written next to it.

- If path is a score log, the scores are read from it and the sequence from the
sample log next to it.

The path must follow the naming convention of the records package, otherwise an
error wrapping ErrInvalidResumeInput is returned.
*/
func Recompute(
	ctx context.Context,
	path string,
	cut int,
	adapter *classifier.Adapter,
	log *logger.Aggregate) (Recomputed, error) {

	if adapter == nil {
		return Recomputed{}, ErrMissingAdapter
	}

	kind, paths, err := records.ParsePath(path)
	if err != nil {
		return Recomputed{}, err
	}

	samples, err := readFile(paths.SampleList(), records.ReadSamples)
	if err != nil {
		return Recomputed{}, err
	}

	sequence, degrees := records.Replay(samples)
	log.Info("replaying %d samples of %d distinct nodes from %s", len(sequence), len(degrees), paths.SampleList())

	var result Recomputed
	var scores map[uint64]float64

	switch kind {
	case records.SampleList:
		result.BotScorePath = paths.BotScore()
		scores, err = classifyAll(ctx, sequence, adapter, result.BotScorePath)

	case records.BotScore:
		scores, err = readFile(paths.BotScore(), records.ReadScores)
	}

	if err != nil {
		return Recomputed{}, err
	}

	labels := classifier.Labels(scores, adapter.Threshold())
	if result.Estimates, err = population.Estimate(sequence, labels, degrees, cut); err != nil {
		return Recomputed{}, err
	}

	if result.Summary, err = population.Summarize(sequence, degrees); err != nil {
		return Recomputed{}, err
	}

	result.EstimatePath = paths.Estimate(adapter.Threshold(), cut)
	file, err := os.Create(result.EstimatePath)
	if err != nil {
		return Recomputed{}, err
	}
	defer file.Close()

	writer := records.Writer{Estimates: file}
	if err := writer.WriteEstimates(result.Estimates); err != nil {
		return Recomputed{}, err
	}

	log.Info("wrote %d estimates to %s", len(result.Estimates), result.EstimatePath)
	return result, nil
}

// classifyAll scores every distinct node of the sequence, writing the scores to path.
func classifyAll(
	ctx context.Context,
	sequence []uint64,
	adapter *classifier.Adapter,
	path string) (map[uint64]float64, error) {

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	writer := records.Writer{Scores: file}
	scores := make(map[uint64]float64)

	for _, nodeID := range sequence {
		if _, exists := scores[nodeID]; exists {
			continue
		}

		// a classification error is informative only: the score is the sentinel
		score, _ := adapter.Score(ctx, nodeID)
		scores[nodeID] = score

		if err := writer.WriteScore(nodeID, score); err != nil {
			return nil, err
		}
	}

	return scores, nil
}

func readFile[T any](path string, read func(r io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer file.Close()

	result, err := read(file)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}
