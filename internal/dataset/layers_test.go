package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpenmark/geomarket/internal/model"
)

const hotspotsFixture = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"id": 0, "name": "Hotspot 0", "type": "Public WiFi"},
			"geometry": {"type": "Point", "coordinates": [8.54, 47.38]}
		},
		{
			"type": "Feature",
			"properties": {"id": 1, "name": "Station Square"},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[8.0, 47.0], [8.2, 47.0], [8.2, 47.2], [8.0, 47.2], [8.0, 47.0]]]
			}
		},
		{
			"type": "Feature",
			"properties": {"name": "broken"},
			"geometry": null
		}
	]
}`

func TestReadPointSites(t *testing.T) {
	sites, err := ReadPointSites(strings.NewReader(hotspotsFixture), model.SiteKindHotspot)
	require.NoError(t, err)

	// The feature without geometry is dropped.
	require.Len(t, sites, 2)

	assert.Equal(t, "hotspot-0", sites[0].ID)
	assert.Equal(t, model.SiteKindHotspot, sites[0].Kind)
	assert.Equal(t, "Hotspot 0", sites[0].Name)
	assert.Equal(t, "Public WiFi", sites[0].Type)
	assert.InDelta(t, 47.38, sites[0].Latitude, 1e-9)
	assert.InDelta(t, 8.54, sites[0].Longitude, 1e-9)

	// Polygon features reduce to their centroid.
	assert.Equal(t, "hotspot-1", sites[1].ID)
	assert.InDelta(t, 47.1, sites[1].Latitude, 1e-9)
	assert.InDelta(t, 8.1, sites[1].Longitude, 1e-9)
}

func TestReadPointSites_InvalidJSON(t *testing.T) {
	_, err := ReadPointSites(strings.NewReader("{not json"), model.SiteKindHotspot)
	assert.Error(t, err)
}

const competitorsFixture = `[
	{
		"name": "Muster Treuhand AG",
		"formatted_address": "Bahnhofstrasse 12, 8910 Affoltern am Albis",
		"types": ["accounting", "finance"],
		"rating": 4.3,
		"geometry": {"location": {"lat": 47.277, "lng": 8.451}}
	},
	{
		"name": "",
		"geometry": {"location": {"lat": 47.0, "lng": 8.0}}
	}
]`

func TestReadCompetitors(t *testing.T) {
	competitors, err := ReadCompetitors(strings.NewReader(competitorsFixture))
	require.NoError(t, err)

	// Nameless entries are dropped.
	require.Len(t, competitors, 1)

	c := competitors[0]
	assert.Equal(t, "Muster Treuhand AG", c.Name)
	assert.Equal(t, "Bahnhofstrasse 12, 8910 Affoltern am Albis", c.Address)
	assert.Equal(t, []string{"accounting", "finance"}, c.Types)
	require.NotNil(t, c.Rating)
	assert.Equal(t, 4.3, *c.Rating)
	assert.InDelta(t, 47.277, c.Latitude, 1e-9)
	assert.InDelta(t, 8.451, c.Longitude, 1e-9)
}
