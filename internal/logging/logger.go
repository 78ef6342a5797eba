// Package logging builds the zerolog logger used across foldersync. Every line
// has the shape "[yyyy-MM-dd HH:mm:ss] message" and goes to stdout and, when
// configured, to an append-only log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TimeLayout is the timestamp layout inside the leading brackets.
const TimeLayout = "2006-01-02 15:04:05"

// Options configures New.
type Options struct {
	// LogFile is appended to on every line. Empty disables the file sink.
	LogFile string
	Level   zerolog.Level
	// Stdout defaults to os.Stdout. Log file failures are reported here too.
	Stdout io.Writer
}

// New returns a logger writing to stdout and the configured log file.
func New(opts Options) zerolog.Logger {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	writers := []io.Writer{NewWriter(out)}
	if opts.LogFile != "" {
		writers = append(writers, NewWriter(NewFileSink(opts.LogFile, out)))
	}

	w := zerolog.SyncWriter(zerolog.MultiLevelWriter(writers...))
	return zerolog.New(w).Level(opts.Level).With().Timestamp().Logger()
}

// NewWriter formats events as "[timestamp] message" onto out. Levels and
// extra fields are not printed.
func NewWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:             out,
		NoColor:         true,
		PartsOrder:      []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatTimestamp: formatTimestamp,
	}
}

func formatTimestamp(i interface{}) string {
	raw := fmt.Sprint(i)
	t, err := time.Parse(zerolog.TimeFieldFormat, raw)
	if err != nil {
		return "[" + raw + "]"
	}
	return "[" + t.Local().Format(TimeLayout) + "]"
}

// ParseLevel maps a config value to a zerolog level. Empty means info.
func ParseLevel(raw string) (zerolog.Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "off", "none":
		return zerolog.Disabled, nil
	}
	lvl, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return lvl, nil
}
