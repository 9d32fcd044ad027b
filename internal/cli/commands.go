package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	varsel "github.com/albertocavalcante/go-varsel"
	"github.com/albertocavalcante/go-varsel/config"
	"github.com/albertocavalcante/go-varsel/descriptor"
	"github.com/albertocavalcante/go-varsel/model"
	"github.com/albertocavalcante/go-varsel/render"
)

// Output formats of the resolve command.
const (
	formatText = "text"
	formatJSON = "json"
	formatDOT  = "dot"
)

var formats = []string{formatText, formatJSON, formatDOT}

// engineFlags are the flags that shape the engine, shared by every command.
type engineFlags struct {
	configPath           string
	preferProject        bool
	noClassifierFallback bool
	concurrency          int
}

func (f *engineFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "TOML file with engine settings")
	flags.BoolVar(&f.preferProject, "prefer-project", false, "let project components win module conflicts")
	flags.BoolVar(&f.noClassifierFallback, "no-classifier-fallback", false, "do not fall back to artifact classifiers")
	flags.IntVar(&f.concurrency, "concurrency", 0, "components fetched in parallel (0 keeps the default)")
}

// options returns engine options in increasing precedence: descriptor,
// config file, then flags.
func (a *app) options(ws *descriptor.Workspace, f *engineFlags, levelSet bool) ([]varsel.Option, error) {
	opts := ws.Options()
	if f.configPath != "" {
		cfg, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cfg.Options()...)
		if !levelSet && cfg.LogLevel != "" {
			a.log().SetLevel(logLevel(cfg.Level(0)))
		}
	}
	if f.preferProject {
		opts = append(opts, varsel.WithPreferProject())
	}
	if f.noClassifierFallback {
		opts = append(opts, varsel.WithClassifierFallback(false))
	}
	if f.concurrency > 0 {
		opts = append(opts, varsel.WithConcurrency(f.concurrency))
	}
	return append(opts, varsel.WithLogger(a.slog())), nil
}

// resolve loads the descriptor at path and resolves its root.
func (a *app) resolve(cmd *cobra.Command, path string, f *engineFlags) (*varsel.Result, error) {
	ws, err := descriptor.LoadWorkspace(path)
	if err != nil {
		return nil, err
	}
	opts, err := a.options(ws, f, cmd.Flags().Changed("log-level"))
	if err != nil {
		return nil, err
	}
	engine, err := varsel.New(ws.Provider, opts...)
	if err != nil {
		return nil, err
	}

	p := a.progress()
	res, err := engine.Resolve(contextOf(cmd), ws.Root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.done("Resolved", "path", path, "components", len(res.Selections), "session", res.SessionID)
	return res, nil
}

// reportFailures prints the failures of res to stderr and returns
// ErrFailures when there are any.
func (a *app) reportFailures(res *varsel.Result) error {
	err := res.Err()
	if err == nil {
		return nil
	}
	r := render.New(render.WithColor(a.color(a.stderr)))
	fmt.Fprintln(a.stderr, r.Failures(err))
	return ErrFailures
}

func (a *app) newResolveCmd() *cobra.Command {
	var (
		f      engineFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "resolve <descriptor>",
		Short: "Resolve the dependency graph of a workspace descriptor",
		Long: `Resolve loads a Starlark (.star) or YAML (.yaml) workspace descriptor,
selects a variant or configuration for every dependency edge and prints the
selected components. Selection failures are printed to stderr and make the
command exit non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(formats, format) {
				return fmt.Errorf("unknown format %q (want one of %v)", format, formats)
			}
			res, err := a.resolve(cmd, args[0], &f)
			if err != nil {
				return err
			}
			if err := a.write(format, res); err != nil {
				return err
			}
			return a.reportFailures(res)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format (text, json, dot)")
	return cmd
}

func (a *app) newExplainCmd() *cobra.Command {
	var f engineFlags
	cmd := &cobra.Command{
		Use:   "explain <descriptor> <group:module>",
		Short: "Explain why a module was selected at its version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := model.ParseModuleID(args[1])
			if err != nil {
				return err
			}
			res, err := a.resolve(cmd, args[0], &f)
			if err != nil {
				return err
			}
			text, err := res.Graph.ToExplainText(module)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, text)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) newDiffCmd() *cobra.Command {
	var (
		f      engineFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "diff <old-descriptor> <new-descriptor>",
		Short: "Compare the selections of two workspace descriptors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := a.resolve(cmd, args[0], &f)
			if err != nil {
				return err
			}
			after, err := a.resolve(cmd, args[1], &f)
			if err != nil {
				return err
			}
			diff := varsel.DiffResults(before, after)
			if asJSON {
				return writeJSON(a.stdout, diff)
			}
			writeDiff(a.stdout, diff)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diff as JSON")
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
