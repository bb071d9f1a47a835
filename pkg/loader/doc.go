/*
Package loader reads spectra from heterogeneous astronomical files into
[spectrum.Spectrum1D] values.

A [Registry] maps format identifiers to [Adapter]s. Each adapter knows one
file convention: where the spectral axis lives (a table column or a WCS
transform in the header), which columns hold flux and uncertainty, and which
units to assume when the file is silent. Built-in identifiers are
generic-ecsv, wcs1d-fits, tabular-fits, HST/COS and HST/STIS.

When the caller names no format, the registry asks every adapter for a
[Match] in registration order. Instrument adapters that see identifying
header keywords answer Specific and beat the structural Generic matches of
the wcs1d and tabular readers. Two Specific answers are ambiguous; Generic
ties go to the adapter registered first, so detection is deterministic.

# Usage

	s, err := loader.Read(loader.File("spec.fits"), "", loader.Options{
	        SpectralAxisUnit: "Angstrom",
	})
	if errors.Is(err, loader.ErrIncompatibleUnitOverride) {
	        // the file's axis is not a wavelength
	}

# Units

SpectralAxisUnit relabels the axis without touching its values; use
[spectrum.Spectrum1D.ConvertSpectralAxis] to rescale.

# Errors

Every failure from [Registry.Read] is an [*Error] whose Kind is one of the
package sentinels, so callers can tell "wrong format requested" from "file is
corrupt" from "unit mismatch" with errors.Is.
*/
package loader
