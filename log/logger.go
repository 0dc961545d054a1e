package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, false, zerolog.InfoLevel)
)

// Config defines the settings for the package level logger
type Config struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Setup replaces the package level logger. A nil writer defaults to stdout
func Setup(c Config, w io.Writer) error {
	lvl := zerolog.InfoLevel
	if c.Level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(strings.ToLower(c.Level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
	}
	if w == nil {
		w = os.Stdout
	}
	mu.Lock()
	logger = newLogger(w, c.JSON, lvl)
	mu.Unlock()
	return nil
}

func newLogger(w io.Writer, asJSON bool, lvl zerolog.Level) zerolog.Logger {
	if !asJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func current() *zerolog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	return &l
}

func event(lvl zerolog.Level, s *SubLogger) *zerolog.Event {
	if s == nil {
		s = Global
	}
	return current().WithLevel(lvl).Str("sys", s.name)
}

// Debugf writes a formatted debug message for the subsystem
func Debugf(s *SubLogger, format string, a ...interface{}) {
	event(zerolog.DebugLevel, s).Msgf(format, a...)
}

// Debugln writes a debug message for the subsystem
func Debugln(s *SubLogger, a ...interface{}) {
	event(zerolog.DebugLevel, s).Msg(sprintln(a...))
}

// Infof writes a formatted info message for the subsystem
func Infof(s *SubLogger, format string, a ...interface{}) {
	event(zerolog.InfoLevel, s).Msgf(format, a...)
}

// Infoln writes an info message for the subsystem
func Infoln(s *SubLogger, a ...interface{}) {
	event(zerolog.InfoLevel, s).Msg(sprintln(a...))
}

// Warnf writes a formatted warning for the subsystem
func Warnf(s *SubLogger, format string, a ...interface{}) {
	event(zerolog.WarnLevel, s).Msgf(format, a...)
}

// Warnln writes a warning for the subsystem
func Warnln(s *SubLogger, a ...interface{}) {
	event(zerolog.WarnLevel, s).Msg(sprintln(a...))
}

// Errorf writes a formatted error for the subsystem
func Errorf(s *SubLogger, format string, a ...interface{}) {
	event(zerolog.ErrorLevel, s).Msgf(format, a...)
}

// Errorln writes an error for the subsystem
func Errorln(s *SubLogger, a ...interface{}) {
	event(zerolog.ErrorLevel, s).Msg(sprintln(a...))
}

// Error writes an error value for the subsystem
func Error(s *SubLogger, err error) {
	event(zerolog.ErrorLevel, s).Err(err).Send()
}

func sprintln(a ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(a...), "\n")
}
