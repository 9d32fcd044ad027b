// Package cli implements the varsel command-line interface.
//
// The commands load a workspace descriptor (Starlark or YAML), resolve it
// with the engine and print the outcome:
//
//	varsel resolve app.star --format json
//	varsel explain app.star org:util
//	varsel diff before.yaml after.yaml
//
// Logs go to stderr through charmbracelet/log, which doubles as the slog
// handler handed to the engine. Results go to stdout.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-varsel/config"
)

// ErrFailures is returned when a resolution completed with failures. The
// failures have already been printed.
var ErrFailures = errors.New("resolution has failures")

var (
	version = "dev"
	commit  = "none"
)

// SetVersion sets the version shown by --version.
func SetVersion(v, c string) {
	version, commit = v, c
}

// app holds state shared by all commands.
type app struct {
	stdout, stderr io.Writer

	logLevel string
	noColor  bool

	logger *log.Logger
}

// NewRootCommand returns the varsel command tree writing to stdout and
// stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "varsel",
		Short:         "Select variants and resolve conflicts in a dependency graph",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			a.logger = newLogger(stderr, config.ParseLevel(a.logLevel, slog.LevelWarn))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("varsel %s (%s)\n", version, commit))

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(a.newResolveCmd())
	root.AddCommand(a.newExplainCmd())
	root.AddCommand(a.newDiffCmd())
	return root
}

// Execute runs the CLI with os.Args and the process streams.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func newLogger(w io.Writer, level slog.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           logLevel(level),
	})
}

// logLevel converts a slog level. Both packages use the same numbering.
func logLevel(l slog.Level) log.Level {
	return log.Level(l)
}

func (a *app) log() *log.Logger {
	if a.logger == nil {
		a.logger = newLogger(a.stderr, slog.LevelWarn)
	}
	return a.logger
}

// slog returns the engine logger backed by the charm logger.
func (a *app) slog() *slog.Logger {
	return slog.New(a.log())
}

// color reports whether w is a terminal that should receive ANSI styling.
func (a *app) color(w io.Writer) bool {
	if a.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func (a *app) progress() *progress {
	return &progress{logger: a.log(), start: time.Now()}
}

func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}
