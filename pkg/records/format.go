// The records package defines the text formats of the files produced by a walk
// (sample log, score log, estimate log) and the convention used to name them.
// Every line is parsed strictly: a malformed line is an error, never skipped.
package records

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vertex-lab/botpop/pkg/models"
	"github.com/vertex-lab/botpop/pkg/utils/redisutils"
)

// FormatSample() formats a sample as "<node_id> <followers> <friends> <neighbors>".
func FormatSample(s models.SampleRecord) string {
	return fmt.Sprintf("%d %d %d %d", s.NodeID, s.Followers, s.Friends, s.Neighbors)
}

// ParseSample() parses a line produced by FormatSample.
func ParseSample(line string) (models.SampleRecord, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return models.SampleRecord{}, fmt.Errorf("%w: expected 4 fields, got %d in %q", models.ErrInvalidResumeInput, len(fields), line)
	}

	nodeID, err := redisutils.ParseID(fields[0])
	if err != nil {
		return models.SampleRecord{}, fmt.Errorf("%w: node ID %q: %v", models.ErrInvalidResumeInput, fields[0], err)
	}

	counts := make([]int, 3)
	for i, field := range fields[1:] {
		count, err := strconv.Atoi(field)
		if err != nil || count < 0 {
			return models.SampleRecord{}, fmt.Errorf("%w: count %q in %q", models.ErrInvalidResumeInput, field, line)
		}
		counts[i] = count
	}

	return models.SampleRecord{
		NodeID:    nodeID,
		Followers: counts[0],
		Friends:   counts[1],
		Neighbors: counts[2],
	}, nil
}

// FormatScore() formats a bot score as "<node_id> <score>".
func FormatScore(nodeID uint64, score float64) string {
	return redisutils.FormatID(nodeID) + " " + redisutils.FormatFloat64(score)
}

// ParseScore() parses a line produced by FormatScore.
func ParseScore(line string) (uint64, float64, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: expected 2 fields, got %d in %q", models.ErrInvalidResumeInput, len(fields), line)
	}

	nodeID, err := redisutils.ParseID(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: node ID %q: %v", models.ErrInvalidResumeInput, fields[0], err)
	}

	score, err := redisutils.ParseFloat64(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: score %q: %v", models.ErrInvalidResumeInput, fields[1], err)
	}

	return nodeID, score, nil
}

// FormatEstimate() formats one value of the running estimate.
func FormatEstimate(estimate float64) string {
	return redisutils.FormatFloat64(estimate)
}

// ReadSamples() reads a sample log. Empty lines are not allowed.
func ReadSamples(r io.Reader) ([]models.SampleRecord, error) {
	var samples []models.SampleRecord
	err := scanLines(r, func(line string) error {
		sample, err := ParseSample(line)
		if err != nil {
			return err
		}
		samples = append(samples, sample)
		return nil
	})

	return samples, err
}

// ReadScores() reads a score log. When a node appears more than once, the last line wins.
func ReadScores(r io.Reader) (map[uint64]float64, error) {
	scores := make(map[uint64]float64)
	err := scanLines(r, func(line string) error {
		nodeID, score, err := ParseScore(line)
		if err != nil {
			return err
		}
		scores[nodeID] = score
		return nil
	})

	return scores, err
}

// ReadEstimates() reads an estimate log.
func ReadEstimates(r io.Reader) ([]float64, error) {
	var estimates []float64
	err := scanLines(r, func(line string) error {
		estimate, err := redisutils.ParseFloat64(strings.TrimSpace(line))
		if err != nil {
			return fmt.Errorf("%w: estimate %q: %v", models.ErrInvalidResumeInput, line, err)
		}
		estimates = append(estimates, estimate)
		return nil
	})

	return estimates, err
}

// Replay() derives the visited sequence and the degree of each node from the
// samples. The degree of a node is the neighbor count at its first occurrence.
func Replay(samples []models.SampleRecord) ([]uint64, map[uint64]int) {
	sequence := make([]uint64, len(samples))
	degrees := make(map[uint64]int)

	for i, sample := range samples {
		sequence[i] = sample.NodeID
		if _, exists := degrees[sample.NodeID]; !exists {
			degrees[sample.NodeID] = sample.Neighbors
		}
	}

	return sequence, degrees
}

// scanLines calls parse on every line of r, stopping at the first error.
// The line number is added to the error.
func scanLines(r io.Reader, parse func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if err := parse(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}

	return scanner.Err()
}
