package geo

// Urbanization classes.
const (
	ClassUrbanCore = "urban_core"
	ClassSuburban  = "suburban"
	ClassExurban   = "exurban"
	ClassRural     = "rural"
)

// Hotspot-density thresholds for classification.
const (
	urbanCoreMinHotspots = 8 // within 5km
	suburbanMinHotspots  = 3 // within 10km
	exurbanMinHotspots   = 1 // within 25km
)

// Classify returns the urbanization class for a municipality center based
// on the surrounding public-hotspot density.
// Rules:
//   - urban_core: >= 8 hotspots within 5km
//   - suburban:   >= 3 hotspots within 10km
//   - exurban:    >= 1 hotspot within 25km
//   - rural:      otherwise
func Classify(at LatLng, hotspots []LatLng) string {
	if CountWithinKM(at, hotspots, 5) >= urbanCoreMinHotspots {
		return ClassUrbanCore
	}
	if CountWithinKM(at, hotspots, 10) >= suburbanMinHotspots {
		return ClassSuburban
	}
	if CountWithinKM(at, hotspots, 25) >= exurbanMinHotspots {
		return ClassExurban
	}
	return ClassRural
}

// ClassScore maps an urbanization class to a [0,1] factor score.
func ClassScore(class string) float64 {
	switch class {
	case ClassUrbanCore:
		return 1.0
	case ClassSuburban:
		return 0.7
	case ClassExurban:
		return 0.4
	default:
		return 0.15
	}
}
