package geo

import (
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func squarePolygon() *geojson.Geometry {
	return geojson.NewPolygonGeometry([][][]float64{{
		{8.0, 47.0},
		{8.2, 47.0},
		{8.2, 47.2},
		{8.0, 47.2},
		{8.0, 47.0},
	}})
}

func TestToGeom(t *testing.T) {
	t.Run("point", func(t *testing.T) {
		g, err := ToGeom(geojson.NewPointGeometry([]float64{8.54, 47.38}))
		require.NoError(t, err)

		pt, ok := g.(*geom.Point)
		require.True(t, ok)
		assert.Equal(t, 8.54, pt.X())
		assert.Equal(t, 47.38, pt.Y())
	})

	t.Run("polygon", func(t *testing.T) {
		g, err := ToGeom(squarePolygon())
		require.NoError(t, err)

		poly, ok := g.(*geom.Polygon)
		require.True(t, ok)
		assert.Equal(t, 1, poly.NumLinearRings())
	})

	t.Run("multipolygon", func(t *testing.T) {
		mp := geojson.NewMultiPolygonGeometry(
			squarePolygon().Polygon,
			[][][]float64{{
				{9.0, 46.0}, {9.1, 46.0}, {9.1, 46.1}, {9.0, 46.1}, {9.0, 46.0},
			}},
		)
		g, err := ToGeom(mp)
		require.NoError(t, err)

		got, ok := g.(*geom.MultiPolygon)
		require.True(t, ok)
		assert.Equal(t, 2, got.NumPolygons())
	})

	t.Run("nil geometry", func(t *testing.T) {
		_, err := ToGeom(nil)
		assert.Error(t, err)
	})

	t.Run("unsupported type", func(t *testing.T) {
		ls := geojson.NewLineStringGeometry([][]float64{{8, 47}, {9, 48}})
		_, err := ToGeom(ls)
		assert.Error(t, err)
	})
}

func TestCenter(t *testing.T) {
	t.Run("point passes through", func(t *testing.T) {
		c, err := Center(geojson.NewPointGeometry([]float64{8.54, 47.38}))
		require.NoError(t, err)
		assert.Equal(t, LatLng{Lat: 47.38, Lng: 8.54}, c)
	})

	t.Run("polygon centroid", func(t *testing.T) {
		c, err := Center(squarePolygon())
		require.NoError(t, err)
		assert.InDelta(t, 47.1, c.Lat, 1e-9)
		assert.InDelta(t, 8.1, c.Lng, 1e-9)
	})
}

func TestContains(t *testing.T) {
	g, err := ToGeom(squarePolygon())
	require.NoError(t, err)

	assert.True(t, Contains(g, LatLng{Lat: 47.1, Lng: 8.1}))
	assert.False(t, Contains(g, LatLng{Lat: 47.5, Lng: 8.1}))

	mp, err := ToGeom(geojson.NewMultiPolygonGeometry(squarePolygon().Polygon))
	require.NoError(t, err)
	assert.True(t, Contains(mp, LatLng{Lat: 47.1, Lng: 8.1}))
	assert.False(t, Contains(mp, LatLng{Lat: 46.0, Lng: 7.0}))
}
