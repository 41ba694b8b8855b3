package compat

import (
	"fmt"
	"os"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/tracelog"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter forwards gnet engine logs to a trace listener
type GnetAdapter struct {
	sink
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(listener *tracelog.Listener, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		sink: sink{listener: listener, source: "gnet", minLevel: LevelDebug},
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetSource changes the source tag, an empty tag omits it
func WithGnetSource(source string) GnetOption {
	return func(a *GnetAdapter) {
		a.source = source
	}
}

// WithGnetMinLevel drops messages below level
func WithGnetMinLevel(level Level) GnetOption {
	return func(a *GnetAdapter) {
		a.minLevel = level
	}
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.emit(LevelDebug, fmt.Sprintf(format, args...))
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.emit(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.emit(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.emit(LevelError, fmt.Sprintf(format, args...))
}

// Fatalf logs at error level, flushes the listener and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.emit(LevelError, "FATAL "+msg)

	// Ensure the line reaches the file before exit
	if a.listener != nil {
		a.listener.Flush()
	}

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
