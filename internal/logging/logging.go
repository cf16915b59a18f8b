// Package logging builds the process logger: console always, plus optional
// file and GELF/Graylog sinks.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// Options selects the log sinks and level.
type Options struct {
	Level string

	// Dir is where the log file goes; empty disables the file sink.
	Dir string

	// GraylogEnabled adds a GELF sink at GraylogAddress. A sink that
	// cannot be dialed is skipped, never fatal.
	GraylogEnabled bool
	GraylogAddress string
}

// LogFilePath builds a timestamped log file path using OS-appropriate
// separators.
func LogFilePath(logsDir string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("gotrim.%s.log", sessionStart.Format("20060102_150405")),
	)
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup builds the root logger. The returned closer flushes and closes the
// file and GELF sinks.
func Setup(opts Options) (zerolog.Logger, func(), error) {
	zerolog.SetGlobalLevel(ParseLevel(opts.Level))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		},
	}
	var closers []func()

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("creating logs dir: %w", err)
		}
		file, err := os.Create(LogFilePath(opts.Dir, time.Now().UTC()))
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("creating log file: %w", err)
		}
		// console format without colors to file
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
		closers = append(closers, func() { file.Close() })
	}

	if opts.GraylogEnabled {
		gw, err := gelf.NewWriter(opts.GraylogAddress)
		if err != nil {
			fmt.Fprintf(os.Stderr, "graylog sink disabled: %v\n", err)
		} else {
			writers = append(writers, gw)
			closers = append(closers, func() { gw.Close() })
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger()

	closer := func() {
		for _, c := range closers {
			c()
		}
	}
	return logger, closer, nil
}
