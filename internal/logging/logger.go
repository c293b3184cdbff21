package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Level orders log severities; a logger drops messages above its level.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelDebug
	LevelVerbose
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG", "VERBOSE"}

func (l Level) String() string {
	if l < LevelError || l > LevelVerbose {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts error, warning (or warn), info, debug and verbose.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "verbose":
		return LevelVerbose, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger is the log sink handed to providers and view models. Every message
// carries a tag naming what it is about.
type Logger interface {
	Error(tag, message string)
	Warning(tag, message string)
	Info(tag, message string)
	Debug(tag, message string)
	Verbose(tag, message string)
}

// StdLogger writes "LEVEL: tag: message" lines through a log.Logger.
type StdLogger struct {
	logger *log.Logger
	level  Level
}

// New creates a StdLogger writing to w.
func New(w io.Writer, level Level) *StdLogger {
	return &StdLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
	}
}

func (l *StdLogger) log(level Level, tag, message string) {
	if level > l.level {
		return
	}
	l.logger.Printf("%s: %s: %s", level, tag, message)
}

func (l *StdLogger) Error(tag, message string)   { l.log(LevelError, tag, message) }
func (l *StdLogger) Warning(tag, message string) { l.log(LevelWarning, tag, message) }
func (l *StdLogger) Info(tag, message string)    { l.log(LevelInfo, tag, message) }
func (l *StdLogger) Debug(tag, message string)   { l.log(LevelDebug, tag, message) }
func (l *StdLogger) Verbose(tag, message string) { l.log(LevelVerbose, tag, message) }

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return New(io.Discard, LevelError)
}
