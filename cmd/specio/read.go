package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkoosis/specio/internal/browse"
	"github.com/dkoosis/specio/pkg/loader"
	"github.com/dkoosis/specio/pkg/mapper"
	"github.com/dkoosis/specio/pkg/render"
	"github.com/dkoosis/specio/pkg/spectrum"
)

// addLoadFlags registers the flags that shape how a file is read.
func (a *app) addLoadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&a.flags.Format, "format", "f", "", "format identifier (default: detect)")
	f.StringVarP(&a.flags.SpectralAxisUnit, "spectral-axis-unit", "u", "", "relabel the spectral axis with a compatible unit")
	f.StringVar(&a.flags.Columns.Wave, "wave-col", "", "spectral axis column name")
	f.StringVar(&a.flags.Columns.Flux, "flux-col", "", "flux column name")
	f.StringVar(&a.flags.Columns.Uncertainty, "unc-col", "", "uncertainty column name")
	f.IntVar(&a.hdu, "hdu", 0, "FITS HDU index (default: adapter choice)")
	f.IntSliceVar(&a.rows, "rows", nil, "x1d table rows to read (segments or orders)")
}

// load reads path with the configured options and applies an optional axis
// conversion.
func (a *app) load(path, convertTo string) (*spectrum.Spectrum1D, error) {
	s, err := a.registry.Read(loader.File(path), a.cfg.Format, a.options())
	if err != nil {
		return nil, err
	}
	if convertTo == "" {
		return s, nil
	}
	converted, err := s.ConvertSpectralAxis(convertTo)
	if err != nil {
		return nil, fmt.Errorf("convert %s to %s: %w", path, convertTo, err)
	}
	return converted, nil
}

func (a *app) readCmd() *cobra.Command {
	var (
		convertTo string
		browseOut bool
	)
	cmd := &cobra.Command{
		Use:   "read FILE",
		Short: "Read a spectrum and summarize it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			s, err := a.load(path, convertTo)
			if err != nil {
				a.logger.Debug("read failed", "source", path, "error", err)
				return a.emit(mapper.FromError(path, err))
			}
			if browseOut {
				if !isTTYWriter(a.stdout) {
					return usageError("--browse needs a terminal on stdout")
				}
				width, _ := termSize(a.stdout)
				content := render.NewTerminal(a.theme(), width).Render(mapper.FromSpectrum(s, mapper.SpectrumOptions{
					SampleRows: s.Len(),
					SparkWidth: max(width-30, 10),
				}))
				if err := browse.Run(cmd.Context(), path, content); err != nil {
					return &exitError{code: exitFailure, err: err}
				}
				return nil
			}
			rows := a.cfg.SampleRows
			if rows == 0 {
				rows = -1
			}
			return a.emit(mapper.FromSpectrum(s, mapper.SpectrumOptions{SampleRows: rows}))
		},
	}
	a.addLoadFlags(cmd)
	cmd.Flags().IntVar(&a.flags.SampleRows, "sample-rows", 0, "rows in the sample table (0 hides it)")
	cmd.Flags().StringVar(&convertTo, "convert-axis", "", "convert the spectral axis to this unit")
	cmd.Flags().BoolVar(&browseOut, "browse", false, "page through every sample interactively")
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	var convertTo string
	cmd := &cobra.Command{
		Use:   "convert FILE OUT.ecsv",
		Short: "Read a spectrum in any format and write it as ECSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			s, err := a.load(in, convertTo)
			if err != nil {
				return a.emit(mapper.FromError(in, err))
			}
			f, err := os.Create(out)
			if err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("create %s: %w", out, err)}
			}
			if err := loader.WriteECSV(f, s); err != nil {
				_ = f.Close()
				return &exitError{code: exitFailure, err: fmt.Errorf("write %s: %w", out, err)}
			}
			if err := f.Close(); err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("write %s: %w", out, err)}
			}
			a.logger.Info("converted", "source", in, "format", s.Format(), "output", out, "samples", s.Len())
			fmt.Fprintf(a.stdout, "wrote %s (%d samples from %s)\n", out, s.Len(), s.Format())
			return nil
		},
	}
	a.addLoadFlags(cmd)
	cmd.Flags().StringVar(&convertTo, "convert-axis", "", "convert the spectral axis to this unit")
	return cmd
}

func (a *app) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE...",
		Short: "Print the detected format of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			results := make([]mapper.Detection, len(args))
			for i, path := range args {
				format, err := a.registry.Detect(loader.File(path))
				results[i] = mapper.Detection{Path: path, Format: format, Err: err}
				if err != nil {
					a.code = exitFailure
				}
			}
			return a.emit(mapper.FromDetections(results))
		},
	}
}

func (a *app) formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List registered formats in detection order",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			for _, name := range a.registry.Formats() {
				fmt.Fprintln(a.stdout, name)
			}
		},
	}
}
