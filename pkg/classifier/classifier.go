// The classifier package converts the raw scores of a models.Classifier into
// bot labels. A failed classification is not fatal: the node gets the
// SentinelScore and it's labelled as not-bot.
package classifier

import (
	"context"
	"fmt"

	"github.com/vertex-lab/botpop/pkg/metrics"
	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/utils/logger"
)

const (
	// SentinelScore is recorded when the classifier fails on a node.
	SentinelScore float64 = -1

	DefaultThreshold float64 = 0.95
)

type Adapter struct {
	classifier models.Classifier
	threshold  float64
	log        *logger.Aggregate
}

// NewAdapter() returns an Adapter that labels as bots the nodes with a score >= threshold.
func NewAdapter(classifier models.Classifier, threshold float64, log *logger.Aggregate) (*Adapter, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold should be between 0 and 1, got %v", threshold)
	}

	return &Adapter{classifier: classifier, threshold: threshold, log: log}, nil
}

// Threshold() returns the threshold used by Label().
func (a *Adapter) Threshold() float64 {
	return a.threshold
}

// Score() returns the score of nodeID. If the classifier fails or returns a
// value outside [0,1], it returns the SentinelScore and an error wrapping
// ErrClassification. The error is informative only.
func (a *Adapter) Score(ctx context.Context, nodeID uint64) (float64, error) {
	if a.classifier == nil {
		return SentinelScore, fmt.Errorf("%w: nil classifier", models.ErrClassification)
	}

	score, err := a.classifier.Score(ctx, nodeID)
	switch {
	case err != nil:
		err = fmt.Errorf("%w: node %d: %w", models.ErrClassification, nodeID, err)

	case score < 0 || score > 1:
		err = fmt.Errorf("%w: node %d: score %v out of range", models.ErrClassification, nodeID, score)
	}

	if err != nil {
		metrics.ClassificationFailures.Inc()
		a.log.Warn("classification: %v", err)
		return SentinelScore, err
	}

	return score, nil
}

// Label() returns whether the score marks a bot. The SentinelScore is never a bot.
func (a *Adapter) Label(score float64) bool {
	return IsBot(score, a.threshold)
}

// IsBot() returns whether score >= threshold. The SentinelScore is never a bot.
func IsBot(score, threshold float64) bool {
	if score == SentinelScore {
		return false
	}
	return score >= threshold
}

// Labels() converts a map of scores into a map of labels.
func Labels(scores map[uint64]float64, threshold float64) map[uint64]bool {
	labels := make(map[uint64]bool, len(scores))
	for nodeID, score := range scores {
		labels[nodeID] = IsBot(score, threshold)
	}
	return labels
}
