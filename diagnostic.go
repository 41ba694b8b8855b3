package tracelog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Diagnostic file sink limits
const (
	diagMaxSizeMB  = 1
	diagMaxBackups = 3
)

// newDiagnostics builds the internal diagnostics logger for a DiagnosticLog
// target. The returned closer is nil when nothing needs closing.
func newDiagnostics(target string) (zerolog.Logger, io.Closer) {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "", "off", "none":
		return zerolog.Nop(), nil
	case "stderr":
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(w).With().Timestamp().Str("component", "tracelog").Logger(), nil
	case "stdout":
		w := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(w).With().Timestamp().Str("component", "tracelog").Logger(), nil
	}

	sink := &lumberjack.Logger{
		Filename:   target,
		MaxSize:    diagMaxSizeMB,
		MaxBackups: diagMaxBackups,
	}
	return zerolog.New(sink).With().Timestamp().Str("component", "tracelog").Logger(), sink
}

// internalLog reports a swallowed failure to the diagnostics logger
func (l *Listener) internalLog(err error, msg string) {
	l.diag.Warn().Err(err).Str("file", l.resolvedFilename).Msg(msg)
}

// diagnostics returns the current diagnostics logger
func (l *Listener) diagnostics() zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.diag
}
