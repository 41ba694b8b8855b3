package tracelog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lixenwraith/tracelog/macro"
)

// Settings holds the options parsed from an initialization string.
// The zero value is not useful, start from DefaultSettings or ParseSettings.
type Settings struct {
	// Filename is the trace file template, may contain macros
	Filename string `toml:"filename" yaml:"filename" json:"filename"`

	// Size rotation
	MaxFileSize     int64          `toml:"max_file_size" yaml:"max_file_size" json:"max_file_size"` // Bytes, <= 0 disables size rotation
	SizeOverAction  RotationAction `toml:"-" yaml:"-" json:"-"`
	SavedPercent    int            `toml:"saved_log_percents" yaml:"saved_log_percents" json:"saved_log_percents"` // Tail kept by ResetSize, 0..99
	MaxRenamedFiles int            `toml:"max_renamed_files" yaml:"max_renamed_files" json:"max_renamed_files"`    // .LNN slots used by Rename

	// Formatting and output
	Encoding        string `toml:"encoding" yaml:"encoding" json:"encoding"`                         // Empty means UTF-8
	LinePrefix      string `toml:"line_prefix" yaml:"line_prefix" json:"line_prefix"`                // Macro template written at line start
	TimeStampFormat string `toml:"time_stamp_format" yaml:"time_stamp_format" json:"time_stamp_format"` // Updates process-wide defaults when set
	AutoFlush       bool   `toml:"auto_flush" yaml:"auto_flush" json:"auto_flush"`

	// Time routing and cleanup
	TimeRoutePattern string        `toml:"time_route_filename_pattern" yaml:"time_route_filename_pattern" json:"time_route_filename_pattern"`
	CleanupOlderThan time.Duration `toml:"-" yaml:"-" json:"-"` // <= 0 disables cleanup

	// Internal diagnostics target: "", "stderr" or a file path
	DiagnosticLog string `toml:"diagnostic_log" yaml:"diagnostic_log" json:"diagnostic_log"`
}

// defaultSettings is the single source for all configurable default values
var defaultSettings = Settings{
	MaxFileSize:     0,
	SizeOverAction:  ActionNothing,
	SavedPercent:    defaultSavedPercent,
	MaxRenamedFiles: defaultMaxRenamedFiles,
	AutoFlush:       false,
}

// DefaultSettings returns a copy of the default settings
func DefaultSettings() Settings {
	return defaultSettings
}

// Clone returns a copy of the settings
func (s Settings) Clone() Settings {
	return s
}

// ParseSettings parses an initialization string of the form
//
//	filename[;key=value[;key=value...]]
//
// Tokens may be separated by ';' or ','. Keys are case-insensitive. Unknown
// keys and malformed values are skipped so that a bad trace configuration
// never prevents an application from starting.
func ParseSettings(init string) Settings {
	s, _ := parseSettings(init)
	return s
}

// parseSettings is ParseSettings that also returns the skipped tokens' errors
func parseSettings(init string) (Settings, error) {
	s := DefaultSettings()
	filename, tokens := SplitInit(init)
	s.Filename = filename

	var errs error
	pairs := make([][2]string, 0, len(tokens))
	for _, token := range tokens {
		key, value, err := parseKeyValue(token)
		if err != nil {
			errs = combineErrors(errs, err)
			continue
		}
		pairs = append(pairs, [2]string{key, value})
	}
	errs = combineErrors(errs, applyPairs(&s, pairs))

	return s, errs
}

// applyPairs applies key-value pairs in order. The legacy rotation pattern
// alias wins over the route pattern regardless of order.
func applyPairs(s *Settings, pairs [][2]string) error {
	var errs error
	var routePattern, rotationPattern string
	for _, kv := range pairs {
		switch normalizeKey(kv[0]) {
		case "timeroutefilenamepattern":
			routePattern = kv[1]
			continue
		case "timerotationfilenamepattern":
			rotationPattern = kv[1]
			continue
		}
		if err := applySetting(s, kv[0], kv[1]); err != nil {
			errs = combineErrors(errs, err)
		}
	}
	if rotationPattern != "" {
		s.TimeRoutePattern = rotationPattern
	} else if routePattern != "" {
		s.TimeRoutePattern = routePattern
	}
	return errs
}

// applySetting applies a single key-value pair, leaving s untouched on error.
func applySetting(s *Settings, key, value string) error {
	switch normalizeKey(key) {
	case "filename", "file", "initializedata":
		s.Filename = value
	case "maxfilesize":
		size, err := parseSize(value)
		if err != nil {
			return err
		}
		s.MaxFileSize = size
	case "encoding":
		s.Encoding = value
	case "savedlogpercents", "savedpercent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmtErrorf("invalid SavedLogPercents '%s': %w", value, err)
		}
		if n < 0 {
			n = -n
		}
		s.SavedPercent = n % 100
	case "logsizeoveraction", "sizeoveraction":
		action, ok := ParseRotationAction(value)
		if !ok {
			return fmtErrorf("invalid LogSizeOverAction '%s' (use Nothing, ResetSize or Rename)", value)
		}
		s.SizeOverAction = action
	case "maxrenamedfiles":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmtErrorf("invalid MaxRenamedFiles '%s': %w", value, err)
		}
		s.MaxRenamedFiles = clampRenamed(n)
	case "lineprefix":
		if strings.HasPrefix(value, "+") {
			s.LinePrefix += value[1:]
		} else {
			s.LinePrefix = value
		}
	case "timeroutefilenamepattern", "timerotationfilenamepattern":
		s.TimeRoutePattern = value
	case "timestampformat":
		s.TimeStampFormat = value
	case "autoflush":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid AutoFlush '%s': %w", value, err)
		}
		s.AutoFlush = b
	case "cleanupolderthan":
		d, err := parseRetention(value)
		if err != nil {
			return err
		}
		s.CleanupOlderThan = d
	case "diagnosticlog":
		s.DiagnosticLog = value
	default:
		return fmtErrorf("unknown key '%s'", key)
	}
	return nil
}

// Validate reports settings that would leave the listener unable to write.
// Listeners accept invalid settings, Validate is for callers that want to fail early.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Filename) == "" {
		return ErrNoFilename
	}
	if s.SavedPercent < 0 || s.SavedPercent > 99 {
		return fmtErrorf("saved percent must be between 0 and 99: %d", s.SavedPercent)
	}
	if s.MaxRenamedFiles < 1 || s.MaxRenamedFiles > maxRenameSlots {
		return fmtErrorf("max renamed files must be between 1 and %d: %d", maxRenameSlots, s.MaxRenamedFiles)
	}
	if s.TimeRoutePattern != "" {
		if _, err := macro.NewPattern(s.TimeRoutePattern); err != nil {
			return fmtErrorf("invalid time route pattern: %w", err)
		}
	}
	if s.TimeStampFormat != "" {
		if _, err := macro.NewPattern(s.TimeStampFormat); err != nil {
			return fmtErrorf("invalid timestamp format: %w", err)
		}
	}
	if s.Encoding != "" {
		if _, err := lookupEncoder(s.Encoding); err != nil {
			return err
		}
	}
	return nil
}

// String renders the settings back into an initialization string
func (s Settings) String() string {
	var sb strings.Builder
	sb.WriteString(s.Filename)
	add := func(key, value string) {
		sb.WriteString(";")
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(value)
	}
	if s.MaxFileSize > 0 {
		add("MaxFileSize", strconv.FormatInt(s.MaxFileSize, 10))
	}
	add("LogSizeOverAction", s.SizeOverAction.String())
	add("SavedLogPercents", strconv.Itoa(s.SavedPercent))
	add("MaxRenamedFiles", strconv.Itoa(s.MaxRenamedFiles))
	if s.Encoding != "" {
		add("Encoding", s.Encoding)
	}
	if s.LinePrefix != "" {
		add("LinePrefix", s.LinePrefix)
	}
	if s.TimeRoutePattern != "" {
		add("TimeRouteFilenamePattern", s.TimeRoutePattern)
	}
	if s.TimeStampFormat != "" {
		add("TimeStampFormat", s.TimeStampFormat)
	}
	if s.AutoFlush {
		add("AutoFlush", "true")
	}
	if s.CleanupOlderThan > 0 {
		add("CleanupOlderThan", strconv.FormatInt(int64(s.CleanupOlderThan/time.Minute), 10))
	}
	if s.DiagnosticLog != "" {
		add("DiagnosticLog", s.DiagnosticLog)
	}
	return sb.String()
}

// parseSize parses a byte count with an optional kb, mb or gb suffix
func parseSize(value string) (int64, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"kb", sizeKB}, {"mb", sizeMB}, {"gb", sizeGB}, {"k", sizeKB}, {"m", sizeMB}, {"g", sizeGB}, {"b", 1},
	} {
		if strings.HasSuffix(v, unit.suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, unit.suffix))
			multiplier = unit.mult
			break
		}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmtErrorf("invalid MaxFileSize '%s': %w", value, err)
	}
	if n > math.MaxInt64/multiplier || n < math.MinInt64/multiplier {
		return 0, fmtErrorf("MaxFileSize '%s' out of range", value)
	}
	return n * multiplier, nil
}

// parseRetention parses a cleanup age: a number with an optional h, d or w
// unit (long forms accepted). Unit-less values are minutes.
func parseRetention(value string) (time.Duration, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	i := 0
	for i < len(v) && (v[i] >= '0' && v[i] <= '9' || v[i] == '.') {
		i++
	}
	num, unit := v[:i], strings.TrimSpace(v[i:])
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmtErrorf("invalid CleanupOlderThan '%s': %w", value, err)
	}

	var per time.Duration
	switch unit {
	case "", "m", "min", "mins", "minute", "minutes":
		per = time.Minute
	case "h", "hour", "hours":
		per = time.Hour
	case "d", "day", "days":
		per = 24 * time.Hour
	case "w", "week", "weeks":
		per = 7 * 24 * time.Hour
	default:
		return 0, fmtErrorf("invalid CleanupOlderThan unit '%s' in '%s'", unit, value)
	}
	d := n * float64(per)
	if math.IsInf(d, 0) || math.IsNaN(d) || d >= math.MaxInt64 {
		return 0, fmtErrorf("CleanupOlderThan '%s' out of range", value)
	}
	return time.Duration(d), nil
}

// clampRenamed keeps the slot count within what a two-digit suffix can address
func clampRenamed(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxRenameSlots {
		return maxRenameSlots
	}
	return n
}

// describe formats settings for diagnostics
func (s Settings) describe() string {
	return fmt.Sprintf("%q", s.String())
}
