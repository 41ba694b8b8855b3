package tracelog

import (
	"sync/atomic"

	"github.com/lixenwraith/tracelog/formatter"
)

// LoggingDefaults are the process-wide formatting defaults. Each listener
// takes a snapshot at construction.
type LoggingDefaults struct {
	AppendTimestamp bool
	TimeStampFormat string
}

var (
	loggingDefaults atomic.Pointer[LoggingDefaults]
	lastInstance    atomic.Pointer[Listener]
)

func init() {
	loggingDefaults.Store(&LoggingDefaults{
		AppendTimestamp: true,
		TimeStampFormat: formatter.DefaultTimestampFormat,
	})
}

// Defaults returns a copy of the current process-wide defaults
func Defaults() LoggingDefaults {
	return *loggingDefaults.Load()
}

// SetDefaults replaces the process-wide defaults. An empty TimeStampFormat
// keeps the current one. Existing listeners are not affected.
func SetDefaults(d LoggingDefaults) {
	if d.TimeStampFormat == "" {
		d.TimeStampFormat = Defaults().TimeStampFormat
	}
	loggingDefaults.Store(&d)
}

// setDefaultTimestampFormat records a listener's TimeStampFormat as the process default
func setDefaultTimestampFormat(format string) {
	for {
		cur := loggingDefaults.Load()
		next := *cur
		next.TimeStampFormat = format
		if loggingDefaults.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Default returns the most recently created listener, or nil if none was created
func Default() *Listener {
	return lastInstance.Load()
}
