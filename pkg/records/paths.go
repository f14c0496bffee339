package records

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vertex-lab/botpop/pkg/models"
)

const (
	Extension        string = ".txt"
	SuffixLog        string = "-log"
	SuffixSampleList string = "-samplinglist"
	SuffixBotScore   string = "-botscore"
	SuffixEstimate   string = "-est"

	timeLayout string = "2006-01-02-15-04-05"
)

// Kind is the kind of a file that can be replayed.
type Kind int

const (
	SampleList Kind = iota
	BotScore
)

func (k Kind) String() string {
	switch k {
	case SampleList:
		return "samplinglist"
	case BotScore:
		return "botscore"
	default:
		return "unknown"
	}
}

// Paths names the files of a single walk. Every file is Dir/Base + suffix + Extension.
type Paths struct {
	Dir  string
	Base string
}

// NewPaths() returns the paths of a walk started at start from the initial node.
// The walk is described by its target sample count, or by its duration when
// samples is zero.
func NewPaths(dir string, start time.Time, initial uint64, samples int, duration time.Duration) Paths {
	base := start.Format(timeLayout) + "-initial" + strconv.FormatUint(initial, 10)
	if samples > 0 {
		base += "-samplesize" + strconv.Itoa(samples)
	} else {
		base += "-time" + FormatDuration(duration)
	}

	return Paths{Dir: dir, Base: base}
}

// FormatDuration() formats the duration as "<days>d<hours>h<minutes>m". Seconds are dropped.
func FormatDuration(d time.Duration) string {
	const day = 24 * time.Hour
	days := d / day
	hours := (d % day) / time.Hour
	minutes := (d % time.Hour) / time.Minute
	return fmt.Sprintf("%dd%dh%dm", days, hours, minutes)
}

func (p Paths) path(suffix string) string {
	return filepath.Join(p.Dir, p.Base+suffix+Extension)
}

// Log() returns the path of the operator log.
func (p Paths) Log() string { return p.path(SuffixLog) }

// SampleList() returns the path of the sample log.
func (p Paths) SampleList() string { return p.path(SuffixSampleList) }

// BotScore() returns the path of the score log.
func (p Paths) BotScore() string { return p.path(SuffixBotScore) }

// Estimate() returns the path of the estimate log for the given threshold and cut.
func (p Paths) Estimate(threshold float64, cut int) string {
	suffix := "-threshold" + formatThreshold(threshold) + "-cut" + strconv.Itoa(cut) + SuffixEstimate
	return p.path(suffix)
}

// formatThreshold always shows a decimal point, so 1 becomes "1.0".
func formatThreshold(threshold float64) string {
	s := strconv.FormatFloat(threshold, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParsePath() returns the kind and the paths of a sample log or score log.
// Any other file returns ErrInvalidResumeInput.
func ParsePath(path string) (Kind, Paths, error) {
	dir, file := filepath.Split(path)
	name, found := strings.CutSuffix(file, Extension)
	if !found {
		return 0, Paths{}, fmt.Errorf("%w: %q is not a %s file", models.ErrInvalidResumeInput, path, Extension)
	}

	if base, found := strings.CutSuffix(name, SuffixSampleList); found && base != "" {
		return SampleList, Paths{Dir: filepath.Clean(dir), Base: base}, nil
	}

	if base, found := strings.CutSuffix(name, SuffixBotScore); found && base != "" {
		return BotScore, Paths{Dir: filepath.Clean(dir), Base: base}, nil
	}

	return 0, Paths{}, fmt.Errorf("%w: %q is neither a %s nor a %s file", models.ErrInvalidResumeInput, path, SuffixSampleList, SuffixBotScore)
}
