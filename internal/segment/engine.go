package segment

import (
	"math"

	"go.uber.org/zap"

	"github.com/alpenmark/geomarket/internal/geo"
	"github.com/alpenmark/geomarket/internal/model"
)

// Proximity scoring parameters.
const (
	proximityRadiusKM = 15.0
	proximityDecayKM  = 5.0

	// Reference population for log scaling; roughly the largest
	// German-speaking municipality (Zürich).
	referencePopulation = 430_000
)

// Factors holds the per-municipality factor scores, each in [0,1].
type Factors struct {
	Income      float64 `json:"income"`
	Population  float64 `json:"population"`
	Hotspots    float64 `json:"hotspots"`
	Advertising float64 `json:"advertising"`
	Urban       float64 `json:"urban"`
}

// Engine computes segment weights for municipalities against the loaded
// point layers.
type Engine struct {
	profiles Profiles
	hotspots []geo.LatLng
	ads      []geo.LatLng
}

// NewEngine creates an Engine. Profiles must already be validated.
func NewEngine(profiles Profiles, hotspots, publicity []model.PointSite) *Engine {
	return &Engine{
		profiles: profiles,
		hotspots: sitesToLatLng(hotspots),
		ads:      sitesToLatLng(publicity),
	}
}

// ComputeAll fills the Weights map of every municipality with one weight
// per segment, each clamped to [0,1].
func (e *Engine) ComputeAll(munis []model.Municipality) {
	for i := range munis {
		f := e.ComputeFactors(&munis[i])

		weights := make(map[string]float64, len(All))
		for _, s := range All {
			weights[s.Key] = e.score(s.Key, f)
		}
		munis[i].Weights = weights
	}

	zap.L().Info("segment weights computed",
		zap.Int("municipalities", len(munis)),
		zap.Int("segments", len(All)),
	)
}

// ComputeFactors derives the factor scores for one municipality.
func (e *Engine) ComputeFactors(m *model.Municipality) Factors {
	at := geo.LatLng{Lat: m.Latitude, Lng: m.Longitude}

	var income float64
	if m.IncomeNorm != nil {
		income = *m.IncomeNorm
	}

	return Factors{
		Income:      income,
		Population:  populationScore(m.Population),
		Hotspots:    geo.ProximityScore(at, e.hotspots, proximityRadiusKM, proximityDecayKM),
		Advertising: geo.ProximityScore(at, e.ads, proximityRadiusKM, proximityDecayKM),
		Urban:       geo.ClassScore(geo.Classify(at, e.hotspots)),
	}
}

// score combines factor scores using the segment's profile, clamped to
// [0,1].
func (e *Engine) score(key string, f Factors) float64 {
	p, ok := e.profiles[key]
	if !ok {
		return 0
	}

	w := p.Income*f.Income +
		p.Population*f.Population +
		p.Hotspots*f.Hotspots +
		p.Advertising*f.Advertising +
		p.Urban*f.Urban

	return math.Min(1, math.Max(0, w))
}

// populationScore log-scales a population count into [0,1].
func populationScore(pop int) float64 {
	if pop <= 0 {
		return 0
	}
	score := math.Log1p(float64(pop)) / math.Log1p(referencePopulation)
	return math.Min(1, score)
}

func sitesToLatLng(sites []model.PointSite) []geo.LatLng {
	points := make([]geo.LatLng, len(sites))
	for i, s := range sites {
		points[i] = geo.LatLng{Lat: s.Latitude, Lng: s.Longitude}
	}
	return points
}
