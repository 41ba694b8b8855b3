package compat

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/tracelog"
)

// Level is the severity an adapter attaches to a forwarded message
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag written in front of forwarded messages
func (lv Level) String() string {
	switch lv {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(lv))
	}
}

// ParseLevel converts a level name, case-insensitive
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "fatal":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("tracelog/compat: unknown level '%s'", name)
	}
}

// sink writes tagged messages to a listener, dropping those below minLevel
type sink struct {
	listener *tracelog.Listener
	source   string
	minLevel Level
}

// emit writes "[source] LEVEL message" as one trace line
func (s *sink) emit(level Level, msg string) {
	if level < s.minLevel || s.listener == nil {
		return
	}
	msg = strings.TrimRight(msg, "\r\n")
	if s.source == "" {
		s.listener.WriteLine(level.String() + " " + msg)
		return
	}
	s.listener.WriteLine("[" + s.source + "] " + level.String() + " " + msg)
}
