package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, c.Init(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestUpsert_AssignsIDAndKeepsItOnReindex(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	first, err := c.Upsert(ctx, Entry{
		Path: "data/cos_fuv.fits", Format: "HST/COS", Samples: 980,
		AxisUnit: "Angstrom", FluxUnit: "erg / (s cm2 Angstrom)",
		AxisMin: 1150, AxisMax: 1778, HasUncertainty: true,
		IndexedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, first.Status)
	assert.True(t, first.HasUncertainty)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), first.IndexedAt)

	second, err := c.Upsert(ctx, Entry{
		Path: "data/cos_fuv.fits", Status: StatusError,
		ErrorKind: "malformed source", Message: "truncated",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, StatusError, second.Status)
	assert.Zero(t, second.Samples)
	assert.False(t, second.HasUncertainty)
}

func TestGet_NotFound(t *testing.T) {
	_, err := newCatalog(t).Get(context.Background(), "missing.fits")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_FiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	for _, e := range []Entry{
		{Path: "c.fits", Format: "wcs1d-fits", Samples: 3020},
		{Path: "a.ecsv", Format: "generic-ecsv", Samples: 10},
		{Path: "b.bin", Status: StatusError, ErrorKind: "detection failed"},
	} {
		_, err := c.Upsert(ctx, e)
		require.NoError(t, err)
	}

	all, err := c.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a.ecsv", "b.bin", "c.fits"}, []string{all[0].Path, all[1].Path, all[2].Path})

	failed, err := c.List(ctx, Filter{Status: StatusError})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b.bin", failed[0].Path)

	wcs, err := c.List(ctx, Filter{Format: "wcs1d-fits"})
	require.NoError(t, err)
	require.Len(t, wcs, 1)
	assert.Equal(t, 3020, wcs[0].Samples)

	limited, err := c.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestCatalog_LazyInitAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lazy.db")

	c := Open(path)
	_, err := c.Upsert(ctx, Entry{Path: "x.fits", Format: "wcs1d-fits"})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	again := Open(path)
	defer again.Close()
	got, err := again.Get(ctx, "x.fits")
	require.NoError(t, err)
	assert.Equal(t, "wcs1d-fits", got.Format)
	assert.Equal(t, path, again.Path())
}

func TestUpsert_RejectsEmptyPath(t *testing.T) {
	_, err := newCatalog(t).Upsert(context.Background(), Entry{})
	assert.Error(t, err)
}
