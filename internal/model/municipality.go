// Package model defines the core domain types shared across the application.
package model

import (
	"encoding/json"
	"time"
)

// Municipality is a German-speaking Swiss municipality with its reference
// data and derived per-segment relevance weights.
type Municipality struct {
	BFSNumber  string             `json:"bfs_number"`
	Name       string             `json:"name"`
	Canton     string             `json:"canton"`
	Latitude   float64            `json:"latitude"`
	Longitude  float64            `json:"longitude"`
	Geometry   json.RawMessage    `json:"geometry,omitempty"`
	Population int                `json:"population,omitempty"`
	Income     *float64           `json:"income,omitempty"`
	IncomeNorm *float64           `json:"income_norm,omitempty"`
	Weights    map[string]float64 `json:"weights,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// HasIncome reports whether income data was matched for this municipality.
func (m *Municipality) HasIncome() bool {
	return m.Income != nil && m.IncomeNorm != nil
}

// Weight returns the weight for a segment key, or 0 if not computed.
func (m *Municipality) Weight(segment string) float64 {
	if m.Weights == nil {
		return 0
	}
	return m.Weights[segment]
}

// Site kinds for point layers.
const (
	SiteKindHotspot     = "hotspot"
	SiteKindAdvertising = "advertising"
)

// PointSite is a point-layer entry: a public hotspot or an advertising
// surface.
type PointSite struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	Type      string  `json:"type,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Competitor is a competitor location from a Places-style export.
type Competitor struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Types     []string `json:"types,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// RankEntry is one row of a per-segment municipality ranking.
type RankEntry struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}
