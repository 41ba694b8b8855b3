package tracelog

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"

	"github.com/lixenwraith/tracelog/formatter"
	"github.com/lixenwraith/tracelog/macro"
)

// Listener writes trace lines to a rotating file. All methods are safe for
// concurrent use. Write failures never reach the caller, they are counted in
// Stats and reported to the diagnostics logger.
type Listener struct {
	mu sync.Mutex

	settings  Settings
	defaults  LoggingDefaults
	resolver  *macro.Resolver
	formatter *formatter.Formatter
	encoder   *encoding.Encoder
	now       func() time.Time

	// Resolver options fixed at construction
	homePath string
	appName  string

	diag         zerolog.Logger
	diagCloser   io.Closer
	diagOverride bool

	// Open file state, nil file means no open handle
	file             *os.File
	out              *bufio.Writer
	resolvedFilename string
	routeValue       string

	lastCleanup time.Time
	indentLevel int
	needIndent  bool
	closed      bool

	state State
}

// Option configures a listener at construction
type Option func(*Listener)

// WithClock sets the time source used for timestamps, time routes and cleanup
func WithClock(now func() time.Time) Option {
	return func(l *Listener) {
		if now != nil {
			l.now = now
		}
	}
}

// WithHomePath sets the directory used for ~, ${HomePath} and relative file names
func WithHomePath(path string) Option {
	return func(l *Listener) {
		l.homePath = path
	}
}

// WithAppName sets the value of ${AppName}
func WithAppName(name string) Option {
	return func(l *Listener) {
		l.appName = name
	}
}

// WithDiagnostics routes internal diagnostics to logger, overriding DiagnosticLog
func WithDiagnostics(logger zerolog.Logger) Option {
	return func(l *Listener) {
		l.diag = logger
		l.diagOverride = true
	}
}

// WithDefaults replaces the process-wide defaults snapshot for this listener
func WithDefaults(d LoggingDefaults) Option {
	return func(l *Listener) {
		if d.TimeStampFormat == "" {
			d.TimeStampFormat = formatter.DefaultTimestampFormat
		}
		l.defaults = d
	}
}

// New creates a listener from an initialization string. It never fails,
// unusable settings leave the listener writing nothing.
// The file is opened lazily on the first write.
func New(init string, opts ...Option) *Listener {
	s, err := parseSettings(init)
	l := newListener(s, opts...)
	if err != nil {
		l.diag.Warn().Err(err).Str("init", init).Msg("ignored invalid settings")
	}
	return l
}

// NewWithSettings creates a listener from parsed settings
func NewWithSettings(s Settings, opts ...Option) *Listener {
	return newListener(s, opts...)
}

func newListener(s Settings, opts ...Option) *Listener {
	l := &Listener{
		defaults:   Defaults(),
		now:        time.Now,
		diag:       zerolog.Nop(),
		needIndent: true,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.configure(s)
	lastInstance.Store(l)
	l.diag.Debug().Str("settings", s.describe()).Msg("listener created")
	return l
}

// configure applies settings, the caller holds the lock or owns l exclusively
func (l *Listener) configure(s Settings) {
	if !l.diagOverride {
		if l.diagCloser != nil {
			_ = l.diagCloser.Close()
		}
		l.diag, l.diagCloser = newDiagnostics(s.DiagnosticLog)
	}

	s.SavedPercent = ((s.SavedPercent % 100) + 100) % 100
	s.MaxRenamedFiles = clampRenamed(s.MaxRenamedFiles)
	l.settings = s

	resolverOpts := []macro.Option{macro.WithHomePath(l.homePath), macro.WithAppName(l.appName)}
	if s.TimeRoutePattern != "" {
		p, err := macro.NewPattern(s.TimeRoutePattern)
		if err != nil {
			l.internalLog(err, "ignored time route pattern")
		} else {
			resolverOpts = append(resolverOpts, macro.WithTimeRoute(p))
		}
	}
	l.resolver = macro.New(resolverOpts...)

	if s.TimeStampFormat != "" {
		if _, err := macro.NewPattern(s.TimeStampFormat); err != nil {
			l.internalLog(err, "ignored timestamp format")
		} else {
			l.defaults.TimeStampFormat = s.TimeStampFormat
			setDefaultTimestampFormat(s.TimeStampFormat)
		}
	}

	indentSize := formatter.DefaultIndentSize
	if l.formatter != nil {
		indentSize = l.formatter.GetIndentSize()
	}
	l.formatter = formatter.New().
		TimestampFormat(l.defaults.TimeStampFormat).
		ShowTimestamp(l.defaults.AppendTimestamp).
		IndentSize(indentSize)

	enc, err := lookupEncoder(s.Encoding)
	if err != nil {
		l.internalLog(err, "falling back to UTF-8")
	}
	l.encoder = enc
}

// WriteLine writes message as one line, applying rotation, cleanup and the
// configured prefix, timestamp and indentation.
func (l *Listener) WriteLine(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.recoverPanic()

	l.writeFormatted(message, true)
}

// Write writes message without a line terminator. Prefix, timestamp and
// indentation are emitted only when message starts a new line.
func (l *Listener) Write(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.recoverPanic()

	l.writeFormatted(message, false)
}

// WriteValue writes v as one line, rendering non-string values
func (l *Listener) WriteValue(v any) {
	l.WriteLine(formatter.FormatValue(v))
}

// WriteDirect writes raw text to the open file with no rotation, cleanup or
// formatting. The file is still opened if needed.
func (l *Listener) WriteDirect(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.recoverPanic()

	if l.closed {
		return
	}
	now := l.now()
	if err := l.ensureOpen(now); err != nil {
		return
	}
	l.writeDirect([]byte(text))
	if strings.HasSuffix(text, "\n") {
		l.needIndent = true
	}
	if l.settings.AutoFlush {
		l.flushHandle()
	}
}

// writeFormatted is the body of the formatted write path
func (l *Listener) writeFormatted(message string, terminate bool) {
	if l.closed {
		return
	}

	now := l.now()
	if err := l.ensureOpen(now); err != nil {
		return
	}

	// Size rotation takes priority, a forced rotation skips the route check
	forced := false
	if l.settings.MaxFileSize > 0 {
		size, err := l.currentSize()
		if err != nil {
			l.internalLog(err, "failed to read file size")
		} else if size > l.settings.MaxFileSize {
			l.rotate(l.settings.SizeOverAction, now)
			forced = true
		}
	}

	// Route boundaries always reopen, never trim or rename
	if !forced && l.resolver.TimeRoutePattern() != nil {
		if route := l.resolver.TimeRoute(now); route != l.routeValue {
			l.rotate(ActionNothing, now)
		}
	}

	if l.file == nil {
		return
	}

	if l.settings.CleanupOlderThan > 0 && (l.lastCleanup.IsZero() || now.Sub(l.lastCleanup) > cleanupInterval) {
		l.lastCleanup = now
		l.cleanup(now)
	}

	var line []byte
	if l.needIndent {
		prefix := ""
		if l.settings.LinePrefix != "" {
			prefix = l.resolver.Resolve(l.settings.LinePrefix, now)
		}
		line = l.formatter.Line(prefix, now, l.indentLevel, message)
	} else {
		line = l.formatter.Line("", time.Time{}, 0, message)
	}
	if terminate {
		line = append(line, '\n')
	}
	l.needIndent = terminate

	if !l.writeDirect(line) {
		return
	}
	if terminate {
		l.state.LinesWritten.Add(1)
	}

	if l.settings.AutoFlush {
		l.flushHandle()
	}
}

// writeDirect hands bytes to the open writer and drops the handle on failure
func (l *Listener) writeDirect(p []byte) bool {
	if l.out == nil {
		return false
	}
	encoded, err := encodeLine(l.encoder, p)
	if err != nil {
		l.internalLog(err, "dropping line")
		return false
	}
	n, err := l.out.Write(encoded)
	l.state.BytesWritten.Add(uint64(n))
	if err != nil {
		l.state.WriteFailures.Add(1)
		l.internalLog(err, "write failed, dropping file handle")
		l.dropHandle()
		return false
	}
	return true
}

// flushHandle flushes buffered output and drops the handle on failure
func (l *Listener) flushHandle() {
	if l.out == nil {
		return
	}
	if err := l.out.Flush(); err != nil {
		l.state.WriteFailures.Add(1)
		l.internalLog(err, "flush failed, dropping file handle")
		l.dropHandle()
	}
}

// recoverPanic keeps a failure inside the listener from reaching the caller
func (l *Listener) recoverPanic() {
	if r := recover(); r != nil {
		l.diag.Error().Interface("panic", r).Str("file", l.resolvedFilename).Msg("recovered in write path")
		l.dropHandle()
	}
}

// Flush writes buffered output to the file
func (l *Listener) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.recoverPanic()

	l.flushHandle()
}

// Rotate applies a rotation action to the open file now. It has no effect
// when no file is open.
func (l *Listener) Rotate(action RotationAction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.recoverPanic()

	if l.closed || l.file == nil {
		return
	}
	l.rotate(action, l.now())
}

// Cleanup runs a cleanup sweep now, regardless of the sweep interval
func (l *Listener) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.recoverPanic()

	if l.closed || l.settings.CleanupOlderThan <= 0 {
		return
	}
	now := l.now()
	l.lastCleanup = now
	l.cleanup(now)
}

// Indent increases the indent level of subsequent lines
func (l *Listener) Indent() {
	l.mu.Lock()
	l.indentLevel++
	l.mu.Unlock()
}

// Unindent decreases the indent level, not below zero
func (l *Listener) Unindent() {
	l.mu.Lock()
	if l.indentLevel > 0 {
		l.indentLevel--
	}
	l.mu.Unlock()
}

// SetIndentSize sets the number of spaces per indent level
func (l *Listener) SetIndentSize(size int) {
	l.mu.Lock()
	l.formatter.IndentSize(size)
	l.mu.Unlock()
}

// Reconfigure replaces the listener settings. The open file is closed and
// the next write opens the file named by the new settings.
func (l *Listener) Reconfigure(s Settings) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	if err := l.closeHandle(); err != nil {
		l.internalLog(err, "failed to close file during reconfigure")
	}
	l.configure(s)
	l.lastCleanup = time.Time{}
	l.routeValue = ""
	l.diag.Info().Str("settings", s.describe()).Msg("listener reconfigured")
	return nil
}

// Settings returns a copy of the current settings
func (l *Listener) Settings() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings.Clone()
}

// Filename returns the resolved name of the open file, or the name the next
// open would use when no file is open.
func (l *Listener) Filename() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.resolvedFilename
	}
	if l.settings.Filename == "" {
		return ""
	}
	return l.resolvePath(l.settings.Filename, l.now())
}

// Stats returns a snapshot of the listener counters
func (l *Listener) Stats() Stats {
	l.mu.Lock()
	name := l.resolvedFilename
	l.mu.Unlock()
	return l.state.snapshot(name)
}

// Writer returns an io.Writer that writes each line of its input through
// WriteLine, for use with log.New or structured loggers.
func (l *Listener) Writer() io.Writer {
	return lineWriter{l: l}
}

// Close flushes and closes the file. Later writes are ignored.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	err := l.closeHandle()
	if l.diagCloser != nil {
		if cerr := l.diagCloser.Close(); cerr != nil {
			err = combineErrors(err, fmtErrorf("failed to close diagnostics: %w", cerr))
		}
		l.diagCloser = nil
	}
	lastInstance.CompareAndSwap(l, nil)
	return err
}

// lineWriter adapts a listener to io.Writer
type lineWriter struct {
	l *Listener
}

func (w lineWriter) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\r\n")
	if text == "" {
		return len(p), nil
	}
	for _, line := range strings.Split(text, "\n") {
		w.l.WriteLine(strings.TrimSuffix(line, "\r"))
	}
	return len(p), nil
}
