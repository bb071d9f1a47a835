package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/dkoosis/specio/internal/catalog"
	"github.com/dkoosis/specio/internal/metrics"
	"github.com/dkoosis/specio/internal/version"
	"github.com/dkoosis/specio/pkg/loader"
	"github.com/dkoosis/specio/pkg/mapper"
	"github.com/dkoosis/specio/pkg/spectrum"
)

const defaultGlob = "**/*.{fits,fit,fts,ecsv}"

func (a *app) indexCmd() *cobra.Command {
	var (
		glob        string
		metricsPath string
	)
	cmd := &cobra.Command{
		Use:   "index ROOT",
		Short: "Read every matching file under ROOT into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			if !doublestar.ValidatePattern(glob) {
				return usageError("invalid --glob pattern %q", glob)
			}
			matches, err := doublestar.Glob(os.DirFS(root), glob, doublestar.WithFilesOnly())
			if err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("glob %s: %w", root, err)}
			}
			slices.Sort(matches)

			cat := catalog.Open(a.cfg.Catalog)
			defer cat.Close()
			if err := cat.Init(cmd.Context()); err != nil {
				return &exitError{code: exitFailure, err: err}
			}

			report, err := a.index(cmd.Context(), cat, root, matches)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			if metricsPath != "" {
				data, err := metrics.Marshal(report)
				if err != nil {
					return &exitError{code: exitFailure, err: err}
				}
				if err := os.WriteFile(metricsPath, data, 0o644); err != nil {
					return &exitError{code: exitFailure, err: fmt.Errorf("write metrics: %w", err)}
				}
			}
			return a.emit(mapper.FromMetrics(report))
		},
	}
	a.addLoadFlags(cmd)
	cmd.Flags().StringVar(&glob, "glob", defaultGlob, "files to index, relative to ROOT")
	cmd.Flags().StringVar(&a.flags.Catalog, "catalog", "", "catalog database path (default: specio.db)")
	cmd.Flags().StringVar(&metricsPath, "metrics-json", "", "also write run metrics as JSON to this path")
	return cmd
}

// index reads each match, stores the outcome in cat and tallies it.
// Per-file read failures are recorded, not returned.
func (a *app) index(ctx context.Context, cat *catalog.Catalog, root string, matches []string) (*metrics.Report, error) {
	collector := metrics.NewCollector()
	opts := a.options()
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(root, filepath.FromSlash(m))
		s, readErr := a.registry.Read(loader.File(path), a.cfg.Format, opts)

		var entry catalog.Entry
		if readErr != nil {
			format := failedFormat(readErr)
			kind := mapper.KindName(readErr)
			a.logger.Warn("index read failed", "source", path, "kind", kind, "error", readErr)
			collector.Fail(path, format, kind, readErr)
			entry = catalog.Entry{
				Path: path, Format: format, Status: catalog.StatusError,
				ErrorKind: kind, Message: readErr.Error(),
			}
		} else {
			collector.Add(s.Format(), s.Len())
			entry = entryFor(path, s)
		}
		if _, err := cat.Upsert(ctx, entry); err != nil {
			return nil, err
		}
	}
	return collector.Report(), nil
}

func failedFormat(err error) string {
	var le *loader.Error
	if errors.As(err, &le) {
		return le.Format
	}
	return ""
}

func entryFor(path string, s *spectrum.Spectrum1D) catalog.Entry {
	axis := s.SpectralAxis()
	_, hasUnc := s.Uncertainty()
	return catalog.Entry{
		Path:           path,
		Format:         s.Format(),
		Status:         catalog.StatusOK,
		Samples:        s.Len(),
		AxisUnit:       axis.Unit.String(),
		FluxUnit:       s.Flux().Unit.String(),
		AxisMin:        slices.Min(axis.Values),
		AxisMax:        slices.Max(axis.Values),
		HasUncertainty: hasUnc,
	}
}

func (a *app) catalogCmd() *cobra.Command {
	var (
		filter catalog.Filter
		failed bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List indexed spectra",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.cfg.Catalog); err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("catalog %s: %w", a.cfg.Catalog, err)}
			}
			cat := catalog.Open(a.cfg.Catalog)
			defer cat.Close()
			if failed {
				filter.Status = catalog.StatusError
			}
			entries, err := cat.List(cmd.Context(), filter)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			return a.emit(mapper.FromCatalog(a.cfg.Catalog, entries))
		},
	}
	cmd.Flags().StringVar(&a.flags.Catalog, "catalog", "", "catalog database path (default: specio.db)")
	cmd.Flags().StringVar(&filter.Format, "format", "", "only entries of this format")
	cmd.Flags().BoolVar(&failed, "failed", false, "only entries that failed to read")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "at most this many entries")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(a.stdout, version.String())
		},
	}
}
