package records

import (
	"fmt"
	"io"
	"os"

	"github.com/vertex-lab/botpop/pkg/models"
)

// Writer appends lines to the three logs of a walk. A nil destination
// silently discards the corresponding lines.
type Writer struct {
	Samples   io.Writer
	Scores    io.Writer
	Estimates io.Writer
}

// WriteSample() appends the sample to the sample log.
func (w *Writer) WriteSample(sample models.SampleRecord) error {
	return writeLine(w.Samples, FormatSample(sample))
}

// WriteScore() appends the score of nodeID to the score log.
func (w *Writer) WriteScore(nodeID uint64, score float64) error {
	return writeLine(w.Scores, FormatScore(nodeID, score))
}

// WriteEstimate() appends one value of the running estimate to the estimate log.
func (w *Writer) WriteEstimate(estimate float64) error {
	return writeLine(w.Estimates, FormatEstimate(estimate))
}

// WriteEstimates() appends all the estimates to the estimate log.
func (w *Writer) WriteEstimates(estimates []float64) error {
	for _, e := range estimates {
		if err := w.WriteEstimate(e); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(out io.Writer, line string) error {
	if out == nil {
		return nil
	}

	if _, err := io.WriteString(out, line+"\n"); err != nil {
		return fmt.Errorf("failed to write %q: %w", line, err)
	}
	return nil
}

// OpenAppend() opens the file at path for appending, creating it if needed.
func OpenAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
}
