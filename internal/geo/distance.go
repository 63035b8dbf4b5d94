// Package geo provides spatial helpers: great-circle distance, proximity
// scoring against point layers, and urbanization classification.
package geo

import "math"

const earthRadiusKM = 6371.0

// LatLng is a bare WGS84 coordinate pair.
type LatLng struct {
	Lat float64
	Lng float64
}

// HaversineKM returns the great-circle distance between two points in
// kilometers.
func HaversineKM(a, b LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// ProximityScore scores how well a location is served by a point layer.
// Every point within radiusKM contributes exp(-d/decayKM); the sum is
// saturated into [0,1] so that a handful of close points dominates over
// many distant ones. Dense layers reach 1.0 once the contribution sum
// exceeds float64 resolution.
func ProximityScore(at LatLng, points []LatLng, radiusKM, decayKM float64) float64 {
	if radiusKM <= 0 || decayKM <= 0 || len(points) == 0 {
		return 0
	}

	var total float64
	for _, p := range points {
		d := HaversineKM(at, p)
		if d > radiusKM {
			continue
		}
		total += math.Exp(-d / decayKM)
	}
	return 1 - math.Exp(-total)
}

// CountWithinKM returns how many points lie within radiusKM of at.
func CountWithinKM(at LatLng, points []LatLng, radiusKM float64) int {
	var n int
	for _, p := range points {
		if HaversineKM(at, p) <= radiusKM {
			n++
		}
	}
	return n
}
