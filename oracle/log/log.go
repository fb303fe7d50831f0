package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu        sync.RWMutex
	customLog = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: w != io.Writer(os.Stderr)}
	return zerolog.New(console).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// InitLogger resets the logger to the console. Output goes to stderr so that
// stdout only carries command results.
func InitLogger() {
	SetOutput(os.Stderr)
}

// SetOutput redirects all log output to w, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	level := customLog.GetLevel()
	customLog = newLogger(w).Level(level)
}

// SetLevel accepts zerolog level names (debug, info, warn, error).
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	mu.Lock()
	defer mu.Unlock()

	customLog = customLog.Level(lvl)
	return nil
}

// ResetLogger writes all following logs to <home>/logs/<binary>.<pid>.log.
func ResetLogger(home string) error {
	if home == "" {
		osHome, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(osHome, ".drpost")
	}

	dir := filepath.Join(home, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s.%d.log", filepath.Base(os.Args[0]), os.Getpid())
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	Infof("From now on, all logs will be written to %s", path)

	mu.Lock()
	defer mu.Unlock()

	level := customLog.GetLevel()
	customLog = zerolog.New(file).With().Timestamp().Logger().Level(level)
	return nil
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	return customLog
}

func Debug(v ...any) {
	l := current()
	l.Debug().Msg(fmt.Sprint(v...))
}

func Debugf(format string, v ...any) {
	l := current()
	l.Debug().Msgf(format, v...)
}

func Info(v ...any) {
	l := current()
	l.Info().Msg(fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	l := current()
	l.Info().Msgf(format, v...)
}

func Error(v ...any) {
	l := current()
	l.Error().Msg(fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	l := current()
	l.Error().Msgf(format, v...)
}

func Fatal(v ...any) {
	l := current()
	l.Error().Msg(fmt.Sprint(v...))
	os.Exit(1)
}

func Fatalf(format string, v ...any) {
	l := current()
	l.Error().Msgf(format, v...)
	os.Exit(1)
}
