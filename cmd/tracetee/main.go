// tracetee copies standard input line by line into a trace file.
//
// Usage:
//
//	tracetee [options] [INIT_STRING]
//
// The trace file is described by an initialization string, a settings file
// (--config) or both, in which case the string is applied as overrides on
// top of the file. With --watch the settings file is reloaded when it
// changes.
//
// Examples:
//
//	app 2>&1 | tracetee "/var/log/app/trace.log;MaxFileSize=10mb;LogSizeOverAction=Rename"
//	app | tracetee --config trace.yaml --watch --echo
//	app | tracetee --set AutoFlush=true --set "LinePrefix=[${PID}] " out.log
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/lixenwraith/tracelog"
)

// Version can be set with -ldflags "-X main.Version=..."
var Version = "0.1.0-dev"

// maxLineSize bounds a single input line
const maxLineSize = 1024 * 1024

func main() {
	os.Exit(run())
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:      "tracetee",
		Usage:     "copy standard input into a rotating trace file",
		Version:   Version,
		ArgsUsage: "[INIT_STRING]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "settings file (.toml, .yaml, .json or raw initialization string)",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "reload the settings file when it changes",
			},
			&cli.BoolFlag{
				Name:    "echo",
				Aliases: []string{"e"},
				Usage:   "also copy input to standard output",
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "override a setting, key=value (repeatable)",
			},
			&cli.StringFlag{
				Name:  "app-name",
				Usage: "value of ${AppName}",
			},
			&cli.StringFlag{
				Name:  "home",
				Usage: "directory relative file names are rooted at",
			},
			&cli.StringFlag{
				Name:  "diagnostic",
				Usage: "internal diagnostics target: stderr, stdout, off or a file path",
				Value: "stderr",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print counters to standard error on exit",
			},
		},
		Action: tee,
	}
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := createApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tracetee: %v\n", err)
		return 1
	}
	return 0
}

// tee is the root command action
func tee(ctx context.Context, cmd *cli.Command) error {
	listener, err := openListener(cmd)
	if err != nil {
		return err
	}
	defer listener.Close()

	if path := cmd.String("config"); path != "" && cmd.Bool("watch") {
		watcher, err := tracelog.WatchSettings(path, listener)
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	var echo io.Writer
	if cmd.Bool("echo") {
		echo = os.Stdout
	}

	err = copyLines(ctx, os.Stdin, listener, echo)
	listener.Flush()

	if cmd.Bool("stats") {
		printStats(os.Stderr, listener.Stats())
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openListener builds the listener from the settings file, the positional
// initialization string and --set overrides, in that order
func openListener(cmd *cli.Command) (*tracelog.Listener, error) {
	s := tracelog.DefaultSettings()
	if path := cmd.String("config"); path != "" {
		loaded, err := tracelog.LoadSettings(path)
		if err != nil {
			return nil, err
		}
		s = loaded
	}

	var overrides []string
	if init := cmd.Args().First(); init != "" {
		if cmd.String("config") == "" {
			s = tracelog.ParseSettings(init)
		} else {
			overrides = initOverrides(init)
		}
	}
	overrides = append(overrides, cmd.StringSlice("set")...)
	if diag := cmd.String("diagnostic"); diag != "" {
		overrides = append(overrides, "DiagnosticLog="+diag)
	}

	var opts []tracelog.Option
	if name := cmd.String("app-name"); name != "" {
		opts = append(opts, tracelog.WithAppName(name))
	}
	if home := cmd.String("home"); home != "" {
		opts = append(opts, tracelog.WithHomePath(home))
	}

	listener := tracelog.NewWithSettings(s, opts...)
	if len(overrides) > 0 {
		if err := listener.ApplyOverride(overrides...); err != nil {
			_ = listener.Close()
			return nil, err
		}
	}
	if err := listener.Settings().Validate(); err != nil {
		_ = listener.Close()
		return nil, err
	}
	return listener, nil
}

// initOverrides turns an initialization string into overrides applied on top
// of a settings file, the file name becoming a Filename override
func initOverrides(init string) []string {
	filename, tokens := tracelog.SplitInit(init)
	if filename != "" {
		tokens = append([]string{"Filename=" + filename}, tokens...)
	}
	return tokens
}

// copyLines writes every input line to the listener until EOF or ctx ends
func copyLines(ctx context.Context, r io.Reader, listener *tracelog.Listener, echo io.Writer) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return ctx.Err()
				}
			}
			listener.WriteLine(line)
			if echo != nil {
				fmt.Fprintln(echo, line)
			}
		}
	}
}

func printStats(w io.Writer, st tracelog.Stats) {
	fmt.Fprintf(w, "file:      %s\n", st.Filename)
	fmt.Fprintf(w, "lines:     %d\n", st.LinesWritten)
	fmt.Fprintf(w, "bytes:     %d\n", st.BytesWritten)
	fmt.Fprintf(w, "rotations: %d (renames %d, resets %d)\n", st.Rotations, st.Renames, st.Resets)
	fmt.Fprintf(w, "deletions: %d\n", st.Deletions)
	fmt.Fprintf(w, "failures:  %d write, %d open\n", st.WriteFailures, st.OpenFailures)
}
