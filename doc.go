// Package tracelog writes trace output to a rotating file.
//
// A Listener is configured by a single initialization string: the file name
// template followed by key=value pairs separated by ';' or ','.
//
//	l := tracelog.New("~/logs/${AppName}.log;MaxFileSize=10mb;LogSizeOverAction=Rename;MaxRenamedFiles=5")
//	defer l.Close()
//	l.WriteLine("service started")
//
// Recognized keys (case-insensitive):
//
//	MaxFileSize                  size that triggers rotation, kb/mb/gb suffixes multiply by 1024
//	LogSizeOverAction            Nothing, ResetSize or Rename
//	SavedLogPercents             share of the file kept by ResetSize, taken mod 100
//	MaxRenamedFiles              number of .LNN files kept by Rename, 1 to 99
//	Encoding                     character set of the file, UTF-8 when empty
//	LinePrefix                   template written at the start of each line, "+" appends
//	TimeRouteFilenamePattern     time pattern that routes output to a new file per period
//	TimeRotationFilenamePattern  legacy alias of TimeRouteFilenamePattern, takes precedence
//	TimeStampFormat              timestamp format, also becomes the process default
//	AutoFlush                    flush after every write
//	CleanupOlderThan             delete files older than this, minutes unless h, d or w is given
//	DiagnosticLog                internal diagnostics target: stderr or a file path
//
// File name templates and line prefixes accept the macros of package macro,
// environment variables and a leading ~ for the application directory.
//
// Raw text bypasses formatting and rotation through WriteDirect, and
// Writer adapts a listener for log.New or zerolog. Settings can also be
// loaded from a file and followed as it changes:
//
//	s, err := tracelog.LoadSettings("trace.yaml")
//	l := tracelog.NewWithSettings(s)
//	w, err := tracelog.WatchSettings("trace.yaml", l)
//	defer w.Stop()
//
// Listener methods never return write errors or panic. Failures drop the file
// handle and the next write opens it again. Failures are counted in Stats and
// reported to the diagnostics logger.
package tracelog
