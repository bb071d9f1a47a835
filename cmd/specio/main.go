// specio reads astronomical spectra from ECSV tables, 1-D WCS FITS images
// and HST x1d files into one uniform record.
//
// Usage:
//
//	specio read spec.fits
//	specio read x1d.fits --format HST/STIS --rows 1
//	specio detect data/*.fits
//	specio convert spec.fits spec.ecsv
//	specio index ./archive --glob '**/*.fits'
//
// Output modes (auto-detected):
//
//	terminal  styled Unicode output (default when TTY)
//	llm       terse plain text for AI consumption (default when piped)
//	json      structured JSON for automation
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dkoosis/specio/internal/config"
	"github.com/dkoosis/specio/pkg/loader"
	"github.com/dkoosis/specio/pkg/pattern"
	"github.com/dkoosis/specio/pkg/render"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1 // a file could not be read
	exitUsage   = 2 // bad flags, arguments or configuration
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// exitError carries an exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

// app is the state shared by every command of one invocation.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	flags config.CliFlags
	hdu   int
	rows  []int

	cfg      *config.ResolvedConfig
	logger   *slog.Logger
	registry *loader.Registry
	code     int
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return a.code
	}
	fmt.Fprintf(stderr, "specio: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Cobra flag and argument errors.
	return exitUsage
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "specio",
		Short:         "Read astronomical spectra from heterogeneous file formats",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.ConfigFile, "config", "", "config file (default: .specio.yaml or .specio.toml)")
	pf.StringVarP(&a.flags.Output, "output", "o", "", "output mode: auto, terminal, llm, json")
	pf.StringVar(&a.flags.Theme, "theme", "", "theme: default, orca, mono")
	pf.BoolVar(&a.flags.NoColor, "no-color", false, "disable colors")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.readCmd(),
		a.detectCmd(),
		a.formatsCmd(),
		a.convertCmd(),
		a.indexCmd(),
		a.catalogCmd(),
		a.versionCmd(),
	)
	return root
}

// setup resolves configuration and builds the logger and registry.
func (a *app) setup(cmd *cobra.Command) error {
	a.flags.NoColorSet = cmd.Flags().Changed("no-color")
	a.flags.SampleRowsSet = cmd.Flags().Changed("sample-rows")

	dir, err := os.Getwd()
	if err != nil {
		return usageError("working directory: %w", err)
	}
	if err := config.LoadDotEnv(dir); err != nil {
		return usageError("%w", err)
	}
	cfg, err := config.ResolveConfig(dir, a.flags)
	if err != nil {
		return usageError("%w", err)
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	a.registry = loader.NewRegistry(loader.WithLogger(a.logger))
	a.logger.Debug("config resolved", "file", cfg.ConfigFile, "output", cfg.Output, "format", cfg.Format)
	return nil
}

// options builds loader options from configuration and read flags.
func (a *app) options() loader.Options {
	return loader.Options{
		SpectralAxisUnit:   a.cfg.SpectralAxisUnit,
		SpectralAxisColumn: a.cfg.Columns.Wave,
		FluxColumn:         a.cfg.Columns.Flux,
		UncertaintyColumn:  a.cfg.Columns.Uncertainty,
		HDU:                a.hdu,
		Rows:               a.rows,
	}
}

// emit renders patterns to stdout and raises the exit code when they carry
// failures.
func (a *app) emit(patterns []pattern.Pattern) error {
	r, err := render.New(a.mode(), a.theme(), a.width())
	if err != nil {
		return usageError("%w", err)
	}
	fmt.Fprint(a.stdout, r.Render(patterns))
	a.code = max(a.code, exitCode(patterns))
	return nil
}

func (a *app) mode() string {
	if a.cfg.Output != "auto" {
		return a.cfg.Output
	}
	if isTTYWriter(a.stdout) {
		return render.ModeTerminal
	}
	return render.ModeLLM
}

func (a *app) theme() render.Theme {
	return render.ResolveTheme(a.cfg.Theme, a.cfg.NoColor)
}

func (a *app) width() int {
	width, _ := termSize(a.stdout)
	return width
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termSize returns the terminal dimensions for w, defaulting to 80x24.
func termSize(w io.Writer) (width, height int) {
	width, height = 80, 24
	if f, ok := w.(*os.File); ok {
		if tw, th, err := term.GetSize(int(f.Fd())); err == nil {
			if tw > 0 {
				width = tw
			}
			if th > 0 {
				height = th
			}
		}
	}
	return width, height
}

// exitCode returns 1 when any error pattern is present. Summaries are
// display-only.
func exitCode(patterns []pattern.Pattern) int {
	for _, p := range patterns {
		if _, ok := p.(*pattern.Error); ok {
			return exitFailure
		}
	}
	return exitOK
}
