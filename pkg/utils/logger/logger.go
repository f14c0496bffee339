// The package logger defines a simple logger with INFO, WARN and ERROR prints,
// backed by zerolog.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Aggregate struct {
	logger zerolog.Logger
}

// New() returns an initialized Logger that writes JSON lines to out.
func New(out io.Writer) *Aggregate {
	return &Aggregate{
		logger: zerolog.New(out).With().Timestamp().Logger(),
	}
}

// NewConsole() returns an initialized Logger that writes human readable lines to out.
func NewConsole(out io.Writer) *Aggregate {
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime, NoColor: true}
	return &Aggregate{
		logger: zerolog.New(console).With().Timestamp().Logger(),
	}
}

// Nop() returns a Logger that discards everything.
func Nop() *Aggregate {
	return &Aggregate{logger: zerolog.Nop()}
}

// WithNode() returns a child Logger that adds the nodeID to every line.
func (l *Aggregate) WithNode(nodeID uint64) *Aggregate {
	if l == nil {
		return nil
	}
	return &Aggregate{logger: l.logger.With().Uint64("node", nodeID).Logger()}
}

// Info() prints an INFO log
func (l *Aggregate) Info(s string, v ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Info().Msgf(s, v...)
}

// Warn() prints an WARN log
func (l *Aggregate) Warn(s string, v ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Warn().Msgf(s, v...)
}

// Error() prints an ERROR log
func (l *Aggregate) Error(s string, v ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Error().Msgf(s, v...)
}

// Writer() returns an io.Writer that logs every write as an INFO line.
// Useful to redirect the standard library loggers of dependencies.
func (l *Aggregate) Writer() io.Writer {
	return writer{l: l}
}

type writer struct{ l *Aggregate }

func (w writer) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.l.Info("%s", msg)
	return len(p), nil
}

// Init() initialise the logger and the file it prints to.
func Init(filePath string) (*Aggregate, *os.File, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, nil, err
	}
	return New(file), file, nil
}
