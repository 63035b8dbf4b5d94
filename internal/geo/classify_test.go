package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// cluster returns n points immediately around a center.
func cluster(center LatLng, n int) []LatLng {
	points := make([]LatLng, n)
	for i := range points {
		points[i] = LatLng{Lat: center.Lat + float64(i)*0.001, Lng: center.Lng}
	}
	return points
}

func TestClassify(t *testing.T) {
	at := LatLng{Lat: 47.3769, Lng: 8.5417}

	t.Run("urban core", func(t *testing.T) {
		assert.Equal(t, ClassUrbanCore, Classify(at, cluster(at, 8)))
	})

	t.Run("suburban", func(t *testing.T) {
		assert.Equal(t, ClassSuburban, Classify(at, cluster(at, 3)))
	})

	t.Run("exurban", func(t *testing.T) {
		// One hotspot roughly 20km away.
		far := LatLng{Lat: at.Lat + 0.18, Lng: at.Lng}
		assert.Equal(t, ClassExurban, Classify(at, []LatLng{far}))
	})

	t.Run("rural", func(t *testing.T) {
		assert.Equal(t, ClassRural, Classify(at, nil))

		veryFar := LatLng{Lat: at.Lat + 1.0, Lng: at.Lng}
		assert.Equal(t, ClassRural, Classify(at, []LatLng{veryFar}))
	})
}

func TestClassScore(t *testing.T) {
	assert.Equal(t, 1.0, ClassScore(ClassUrbanCore))
	assert.Equal(t, 0.7, ClassScore(ClassSuburban))
	assert.Equal(t, 0.4, ClassScore(ClassExurban))
	assert.Equal(t, 0.15, ClassScore(ClassRural))
	assert.Equal(t, 0.15, ClassScore("unknown"))
}
