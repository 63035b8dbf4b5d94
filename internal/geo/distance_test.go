package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	zurich = LatLng{Lat: 47.3769, Lng: 8.5417}
	bern   = LatLng{Lat: 46.9480, Lng: 7.4474}
	geneva = LatLng{Lat: 46.2044, Lng: 6.1432}
)

func TestHaversineKM(t *testing.T) {
	// Zürich–Bern is about 95 km as the crow flies.
	d := HaversineKM(zurich, bern)
	assert.InDelta(t, 95, d, 3)

	// Symmetric.
	assert.InDelta(t, d, HaversineKM(bern, zurich), 1e-9)

	// Zero distance to itself.
	assert.InDelta(t, 0, HaversineKM(zurich, zurich), 1e-9)
}

func TestProximityScore(t *testing.T) {
	t.Run("no points", func(t *testing.T) {
		assert.Equal(t, 0.0, ProximityScore(zurich, nil, 15, 5))
	})

	t.Run("points outside radius contribute nothing", func(t *testing.T) {
		assert.Equal(t, 0.0, ProximityScore(zurich, []LatLng{geneva}, 15, 5))
	})

	t.Run("closer points score higher", func(t *testing.T) {
		near := LatLng{Lat: 47.38, Lng: 8.55}
		far := LatLng{Lat: 47.45, Lng: 8.65}

		nearScore := ProximityScore(zurich, []LatLng{near}, 15, 5)
		farScore := ProximityScore(zurich, []LatLng{far}, 15, 5)
		assert.Greater(t, nearScore, farScore)
	})

	t.Run("saturates at 1", func(t *testing.T) {
		points := make([]LatLng, 100)
		for i := range points {
			points[i] = zurich
		}
		// 100 coincident points exhaust float64 resolution: exp(-100) < 2^-53.
		score := ProximityScore(zurich, points, 15, 5)
		assert.Greater(t, score, 0.99)
		assert.LessOrEqual(t, score, 1.0)
	})

	t.Run("stays below 1 for sparse layers", func(t *testing.T) {
		score := ProximityScore(zurich, []LatLng{zurich, zurich}, 15, 5)
		assert.Greater(t, score, 0.8)
		assert.Less(t, score, 1.0)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		assert.Equal(t, 0.0, ProximityScore(zurich, []LatLng{zurich}, 0, 5))
		assert.Equal(t, 0.0, ProximityScore(zurich, []LatLng{zurich}, 15, 0))
	})
}

func TestCountWithinKM(t *testing.T) {
	points := []LatLng{zurich, bern, geneva}

	assert.Equal(t, 1, CountWithinKM(zurich, points, 10))
	assert.Equal(t, 2, CountWithinKM(zurich, points, 100))
	assert.Equal(t, 3, CountWithinKM(zurich, points, 300))
	assert.Equal(t, 0, CountWithinKM(LatLng{Lat: 0, Lng: 0}, points, 100))
}
