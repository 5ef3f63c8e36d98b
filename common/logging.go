package common

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide structured logger, creating it on first use.
// Components that accept a WithLogger option fall back to this logger.
//
// Returns:
//   - *log.Logger: the shared logger
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy-skin",
		})
		logger.SetLevel(log.InfoLevel)
	})
	return logger
}

// SetLogLevel sets the shared logger's level by name ("debug", "info", "warn", "error").
// Unknown names leave the level unchanged and report false.
//
// Parameters:
//   - level: the level name
//
// Returns:
//   - bool: true if the level name was recognized
func SetLogLevel(level string) bool {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return false
	}
	Logger().SetLevel(lvl)
	return true
}

func LogDebug(msg string, keyvals ...any) {
	Logger().Debug(msg, keyvals...)
}

func LogInfo(msg string, keyvals ...any) {
	Logger().Info(msg, keyvals...)
}

func LogWarn(msg string, keyvals ...any) {
	Logger().Warn(msg, keyvals...)
}

func LogError(msg string, keyvals ...any) {
	Logger().Error(msg, keyvals...)
}
