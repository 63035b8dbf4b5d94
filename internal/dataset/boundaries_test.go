package dataset

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGermanSpeaking(t *testing.T) {
	// Zürich and Bern fall in the covered ranges, Geneva and Lugano do not.
	assert.True(t, isGermanSpeaking(261))  // Zürich
	assert.True(t, isGermanSpeaking(351))  // Bern
	assert.True(t, isGermanSpeaking(1061)) // Luzern
	assert.False(t, isGermanSpeaking(5192)) // Lugano
	assert.False(t, isGermanSpeaking(6621)) // Genève
	assert.False(t, isGermanSpeaking(0))
}

func squareShpPolygon(x, y float64) *shp.Polygon {
	return &shp.Polygon{
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: x, Y: y},
			{X: x, Y: y + 0.1},
			{X: x + 0.1, Y: y + 0.1},
			{X: x + 0.1, Y: y},
			{X: x, Y: y},
		},
	}
}

func TestPolygonToMultiPolygon(t *testing.T) {
	t.Run("single ring", func(t *testing.T) {
		mp := polygonToMultiPolygon(squareShpPolygon(8.0, 47.0))
		require.NotNil(t, mp)
		assert.Equal(t, 1, mp.NumPolygons())
		assert.Equal(t, 4326, mp.SRID())
	})

	t.Run("multi part", func(t *testing.T) {
		a := squareShpPolygon(8.0, 47.0)
		b := squareShpPolygon(9.0, 46.0)
		combined := &shp.Polygon{
			NumParts:  2,
			NumPoints: 10,
			Parts:     []int32{0, 5},
			Points:    append(append([]shp.Point{}, a.Points...), b.Points...),
		}

		mp := polygonToMultiPolygon(combined)
		require.NotNil(t, mp)
		assert.Equal(t, 2, mp.NumPolygons())
	})

	t.Run("empty polygon", func(t *testing.T) {
		assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{}))
		assert.Nil(t, polygonToMultiPolygon(nil))
	})
}

func writeTestShapefile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hoheitsgebiet.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("NAME", 40),
		shp.StringField("BFS_NUMMER", 10),
		shp.StringField("ICC", 4),
	}))

	rows := []struct {
		name string
		bfs  string
		icc  string
		x, y float64
	}{
		{"Zürich", "261", "CH", 8.5, 47.3},
		{"Lugano", "5192", "CH", 8.9, 46.0}, // not German-speaking
		{"Konstanz", "8888", "DE", 9.2, 47.7},
	}
	for i, row := range rows {
		w.Write(squareShpPolygon(row.x, row.y))
		require.NoError(t, w.WriteAttribute(i, 0, row.name))
		require.NoError(t, w.WriteAttribute(i, 1, row.bfs))
		require.NoError(t, w.WriteAttribute(i, 2, row.icc))
	}
	w.Close()
	return path
}

func TestReadBoundaries(t *testing.T) {
	path := writeTestShapefile(t)

	boundaries, err := ReadBoundaries(path)
	require.NoError(t, err)

	// Only the Swiss German-speaking record survives the filters.
	require.Len(t, boundaries, 1)

	b := boundaries[0]
	assert.Equal(t, "261", b.BFSNumber)
	assert.Equal(t, "Zürich", b.Name)
	assert.NotEmpty(t, b.Geometry)
	assert.NotEmpty(t, b.EWKB)
	assert.Contains(t, string(b.Geometry), "MultiPolygon")
}

func TestReadBoundaries_MissingFile(t *testing.T) {
	_, err := ReadBoundaries(filepath.Join(t.TempDir(), "nope.shp"))
	assert.Error(t, err)
}
