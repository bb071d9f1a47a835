// Package mapper converts loader results, catalog entries and batch metrics
// into [pattern.Pattern] values for the renderers.
//
// Mappers never format for a particular output; they choose what to show
// (which facts, how many rows, where the sparkline bins fall) and leave
// styling to pkg/render.
package mapper
