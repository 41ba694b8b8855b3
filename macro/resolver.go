// Package macro expands runtime placeholders in trace file names and line prefixes.
//
// Placeholders use either the ${NAME} or the $(NAME) form and are matched
// case-insensitively:
//
//	PID        process id
//	TID        operating system thread id of the caller
//	TN         name of the calling goroutine ("goroutine-N")
//	StartTs    process start time, 20060102_150405
//	StartDate  process start date, 20060102
//	StartTime  process start time of day, 150405
//	TimeRoute  current time-route value (alias TimeRotation)
//	HomePath   application home directory
//	AppName    application name
//
// Unknown placeholders fall back to the environment variable of the same name
// and are left untouched when no such variable exists. %VAR% references are
// expanded from the environment as well.
package macro

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// processStart is captured once when the package is initialized
var processStart = time.Now()

// Start timestamp layouts
const (
	startTsLayout   = "20060102_150405"
	startDateLayout = "20060102"
	startTimeLayout = "150405"
)

var (
	appInfoOnce  sync.Once
	homePathInfo string
	appNameInfo  string
)

// osExecutable is swapped in tests
var osExecutable = os.Executable

// Resolver expands macros for one listener configuration. It is immutable and
// safe for concurrent use.
type Resolver struct {
	homePath  string
	appName   string
	startTime time.Time
	timeRoute *Pattern
}

// Option configures a Resolver
type Option func(*Resolver)

// WithHomePath overrides the application home directory
func WithHomePath(path string) Option {
	return func(r *Resolver) {
		if path != "" {
			r.homePath = path
		}
	}
}

// WithAppName overrides the application name
func WithAppName(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.appName = name
		}
	}
}

// WithStartTime overrides the process start time used by the Start* macros
func WithStartTime(t time.Time) Option {
	return func(r *Resolver) {
		if !t.IsZero() {
			r.startTime = t
		}
	}
}

// WithTimeRoute sets the time-route pattern, nil disables time routing
func WithTimeRoute(p *Pattern) Option {
	return func(r *Resolver) {
		r.timeRoute = p
	}
}

// New creates a Resolver with process defaults
func New(opts ...Option) *Resolver {
	home, app := appInfo()
	r := &Resolver{
		homePath:  home,
		appName:   app,
		startTime: processStart,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HomePath returns the directory relative file names are rooted at
func (r *Resolver) HomePath() string {
	return r.homePath
}

// AppName returns the application name
func (r *Resolver) AppName() string {
	return r.appName
}

// TimeRoutePattern returns the configured time-route pattern or nil
func (r *Resolver) TimeRoutePattern() *Pattern {
	return r.timeRoute
}

// TimeRoute returns the time-route value at now, empty when no pattern is configured
func (r *Resolver) TimeRoute(now time.Time) string {
	return r.timeRoute.Format(now)
}

// Resolve expands macros and environment references in template
func (r *Resolver) Resolve(template string, now time.Time) string {
	return r.expand(template, now, r.TimeRoute(now))
}

// ResolvePath expands a file name template. A leading ~ maps to the home path,
// and when a time-route pattern is configured without an explicit macro the
// route value is inserted before the file extension.
func (r *Resolver) ResolvePath(template string, now time.Time) string {
	template = r.expandHome(template)
	route := r.TimeRoute(now)
	path := r.expand(template, now, route)
	if r.timeRoute != nil && !HasTimeRoute(template) {
		path = insertBeforeExt(path, route)
	}
	return path
}

// GlobPattern builds a filepath.Match pattern covering every file the template
// produces across time-route values
func (r *Resolver) GlobPattern(template string, now time.Time) string {
	template = r.expandHome(template)
	if r.timeRoute != nil && HasTimeRoute(template) {
		wildcard := strings.Repeat("?", r.timeRoute.Width(now))
		return r.expand(template, now, wildcard)
	}
	return insertBeforeExt(r.expand(template, now, ""), "*")
}

// HasTimeRoute reports whether template places the time-route value explicitly
func HasTimeRoute(template string) bool {
	for i := 0; i+1 < len(template); i++ {
		if template[i] != '$' || (template[i+1] != '(' && template[i+1] != '{') {
			continue
		}
		closer := byte(')')
		if template[i+1] == '{' {
			closer = '}'
		}
		end := strings.IndexByte(template[i+2:], closer)
		if end < 0 {
			continue
		}
		switch macroKey(template[i+2 : i+2+end]) {
		case "TIMEROUTE", "TIMEROTATION":
			return true
		}
	}
	return false
}

// macroKey normalizes a macro name for lookup
func macroKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// expand performs a single left-to-right pass over template
func (r *Resolver) expand(template string, now time.Time, route string) string {
	if !strings.Contains(template, "$") {
		return expandPercentEnv(template)
	}

	var sb strings.Builder
	sb.Grow(len(template) + 32)
	for i := 0; i < len(template); {
		if template[i] == '$' && i+1 < len(template) && (template[i+1] == '(' || template[i+1] == '{') {
			closer := byte(')')
			if template[i+1] == '{' {
				closer = '}'
			}
			if end := strings.IndexByte(template[i+2:], closer); end >= 0 {
				name := template[i+2 : i+2+end]
				if val, ok := r.lookup(name, now, route); ok {
					sb.WriteString(val)
					i += end + 3
					continue
				}
			}
		}
		sb.WriteByte(template[i])
		i++
	}
	return expandPercentEnv(sb.String())
}

// lookup returns the value of a single macro
func (r *Resolver) lookup(name string, now time.Time, route string) (string, bool) {
	switch macroKey(name) {
	case "PID":
		return strconv.Itoa(os.Getpid()), true
	case "TID":
		return strconv.FormatUint(threadID(), 10), true
	case "TN":
		return threadName(), true
	case "STARTTS":
		return r.startTime.Format(startTsLayout), true
	case "STARTDATE":
		return r.startTime.Format(startDateLayout), true
	case "STARTTIME":
		return r.startTime.Format(startTimeLayout), true
	case "TIMEROUTE", "TIMEROTATION":
		return route, true
	case "HOMEPATH":
		return r.homePath, true
	case "APPNAME":
		return r.appName, true
	}
	if val, ok := os.LookupEnv(name); ok {
		return val, true
	}
	return "", false
}

// expandHome maps a leading ~ to the home path
func (r *Resolver) expandHome(template string) string {
	switch {
	case template == "~":
		return r.homePath
	case strings.HasPrefix(template, "~/"), strings.HasPrefix(template, `~\`):
		return r.homePath + string(filepath.Separator) + template[2:]
	}
	return template
}

// expandPercentEnv expands %VAR% references that name a set variable
func expandPercentEnv(s string) string {
	if strings.Count(s, "%") < 2 {
		return s
	}

	var sb strings.Builder
	for {
		start := strings.IndexByte(s, '%')
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start+1:], '%')
		if end < 0 {
			break
		}
		name := s[start+1 : start+1+end]
		if val, ok := os.LookupEnv(name); ok && name != "" {
			sb.WriteString(s[:start])
			sb.WriteString(val)
			s = s[start+end+2:]
			continue
		}
		// keep the first '%' and rescan from the second one
		sb.WriteString(s[:start+1])
		s = s[start+1:]
	}
	sb.WriteString(s)
	return sb.String()
}

// insertBeforeExt places s between the file stem and its extension
func insertBeforeExt(path, s string) string {
	if s == "" {
		return path
	}
	baseStart := strings.LastIndexAny(path, `/\`) + 1
	base := path[baseStart:]
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		return path + s
	}
	return path[:baseStart+dot] + s + base[dot:]
}

// appInfo resolves and caches the executable directory and name
func appInfo() (string, string) {
	appInfoOnce.Do(func() {
		exe, err := osExecutable()
		if err == nil && exe != "" {
			homePathInfo = filepath.Dir(exe)
			name := filepath.Base(exe)
			appNameInfo = strings.TrimSuffix(name, filepath.Ext(name))
		}
		if homePathInfo == "" {
			if wd, err := os.Getwd(); err == nil {
				homePathInfo = wd
			}
		}
		if appNameInfo == "" && len(os.Args) > 0 {
			name := filepath.Base(os.Args[0])
			appNameInfo = strings.TrimSuffix(name, filepath.Ext(name))
		}
	})
	return homePathInfo, appNameInfo
}
