// Package maprender composes self-contained Leaflet HTML documents:
// a base map with tile layer, plus choropleth and marker overlays.
package maprender

import (
	"bytes"
	"html/template"

	"github.com/rotisserie/eris"

	"github.com/alpenmark/geomarket/internal/geo"
)

// Map accumulates overlays and renders them into a standalone HTML page.
type Map struct {
	Title       string
	Center      geo.LatLng
	Zoom        int
	TileURL     string
	Attribution string

	layers []layer
}

// layer is anything that can emit the JavaScript creating a Leaflet
// overlay bound to the map variable and register itself for the layer
// control.
type layer interface {
	Name() string
	Clustered() bool
	Script() (template.JS, error)
}

// New creates a map centered on the given coordinates.
func New(title string, center geo.LatLng, zoom int, tileURL, attribution string) *Map {
	if tileURL == "" {
		tileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	}
	if attribution == "" {
		attribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	}
	return &Map{
		Title:       title,
		Center:      center,
		Zoom:        zoom,
		TileURL:     tileURL,
		Attribution: attribution,
	}
}

// Add appends an overlay to the map. Overlays render in insertion order,
// so polygons added first end up below markers added later.
func (m *Map) Add(l layer) {
	m.layers = append(m.layers, l)
}

type layerData struct {
	Name   string
	Script template.JS
}

type pageData struct {
	Title        string
	CenterLat    float64
	CenterLng    float64
	Zoom         int
	TileURL      string
	Attribution  string
	NeedsCluster bool
	Layers       []layerData
}

// Render writes the complete HTML document.
func (m *Map) Render() ([]byte, error) {
	data := pageData{
		Title:       m.Title,
		CenterLat:   m.Center.Lat,
		CenterLng:   m.Center.Lng,
		Zoom:        m.Zoom,
		TileURL:     m.TileURL,
		Attribution: m.Attribution,
	}

	for _, l := range m.layers {
		script, err := l.Script()
		if err != nil {
			return nil, eris.Wrapf(err, "maprender: render layer %s", l.Name())
		}
		if l.Clustered() {
			data.NeedsCluster = true
		}
		data.Layers = append(data.Layers, layerData{Name: l.Name(), Script: script})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, eris.Wrap(err, "maprender: execute page template")
	}
	return buf.Bytes(), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
{{- if .NeedsCluster}}
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css">
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.Default.css">
<script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js"></script>
{{- end}}
<style>
html, body { margin: 0; padding: 0; height: 100%; }
#map { width: 100%; height: 100%; }
.legend { background: white; padding: 8px 12px; border-radius: 4px; box-shadow: 0 1px 4px rgba(0,0,0,0.3); font: 12px/1.5 sans-serif; }
.legend i { width: 14px; height: 14px; float: left; margin-right: 6px; opacity: 0.8; }
</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLng}}], {{.Zoom}});
L.tileLayer('{{.TileURL}}', {attribution: '{{.Attribution}}', maxZoom: 18}).addTo(map);
var overlays = {};
{{- range .Layers}}
{{.Script}}
{{- end}}
if (Object.keys(overlays).length > 0) {
	L.control.layers(null, overlays, {collapsed: false}).addTo(map);
}
</script>
</body>
</html>
`))
