package tracelog

import (
	"fmt"
	"strings"
)

// ApplyOverride applies "key=value" overrides on top of the current settings
// and reconfigures the listener. Keys use initialization string names.
// Nothing is applied when any override is invalid.
//
// Example:
//
//	l := tracelog.New("app.log")
//	err := l.ApplyOverride(
//	    "MaxFileSize=10mb",
//	    "LogSizeOverAction=Rename",
//	    "AutoFlush=true",
//	)
func (l *Listener) ApplyOverride(overrides ...string) error {
	s := l.Settings()

	var errs []error
	pairs := make([][2]string, 0, len(overrides))
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pairs = append(pairs, [2]string{key, value})
	}

	// Validate each pair on a scratch copy so errors are reported per key
	for _, kv := range pairs {
		scratch := s
		if err := applySetting(&scratch, kv[0], kv[1]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return combineOverrideErrors(errs)
	}

	_ = applyPairs(&s, pairs)
	return l.Reconfigure(s)
}

// combineOverrideErrors combines multiple override errors into a single error.
func combineOverrideErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("tracelog: multiple override errors:")
	for i, err := range errs {
		msg := strings.TrimPrefix(err.Error(), "tracelog: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, msg))
	}
	return fmt.Errorf("%s", sb.String())
}
