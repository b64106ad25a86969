package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Terminal output goes through a colored
// console writer; an optional file gets the same format without colors.
func New(level string, console io.Writer, file io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
		},
	}
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().Timestamp().
		Logger(), nil
}

// OpenFile creates logsDir if needed and opens a session log inside it.
func OpenFile(logsDir string, sessionStart time.Time) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}
	return os.OpenFile(FilePath(logsDir, sessionStart), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// FilePath builds a log file path using OS-appropriate path separators.
func FilePath(logsDir string, sessionStart time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("swervesim.%s.log", sessionStart.Format("20060102_150405")))
}
