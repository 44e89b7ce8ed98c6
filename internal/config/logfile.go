package config

import (
	"fmt"
	"io"
	"time"

	"github.com/lestrrat-go/strftime"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFilePath expands LogFilePattern for now, giving a fresh file name
// per calendar day the same way the teacher's log_init daily_names
// mode does, but driven by a real strftime implementation instead of
// hand-rolled date formatting. An empty pattern disables file logging.
func (c Config) LogFilePath(now time.Time) (string, error) {
	if c.LogFilePattern == "" {
		return "", nil
	}

	f, err := strftime.New(c.LogFilePattern)
	if err != nil {
		return "", fmt.Errorf("config: invalid log file pattern %q: %w", c.LogFilePattern, err)
	}

	return f.FormatString(now), nil
}

// LogFileWriter opens the daily-named log file (if LogFilePattern is set)
// behind a size-based rotator, mirroring the original daemon's
// RotatingFileHandler(maxBytes=..., backupCount=...). Returns nil if file
// logging is disabled.
func (c Config) LogFileWriter(now time.Time) (io.WriteCloser, error) {
	path, err := c.LogFilePath(now)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
	}, nil
}
