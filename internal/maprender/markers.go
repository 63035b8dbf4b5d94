package maprender

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/rotisserie/eris"

	"github.com/alpenmark/geomarket/internal/model"
)

// MarkerGroup renders a set of circle markers in one color, optionally
// wrapped in a cluster group for dense layers.
type MarkerGroup struct {
	LayerName string
	Color     string
	Cluster   bool

	points []markerPoint
}

type markerPoint struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Popup string  `json:"popup"`
}

// NewMarkerGroup creates an empty marker overlay.
func NewMarkerGroup(layerName, color string, cluster bool) *MarkerGroup {
	return &MarkerGroup{LayerName: layerName, Color: color, Cluster: cluster}
}

// AddSite appends a point site marker with a name/type popup.
func (g *MarkerGroup) AddSite(s model.PointSite) {
	popup := template.HTMLEscapeString(s.Name)
	if s.Type != "" {
		popup += "<br><i>" + template.HTMLEscapeString(s.Type) + "</i>"
	}
	g.points = append(g.points, markerPoint{Lat: s.Latitude, Lng: s.Longitude, Popup: popup})
}

// AddCompetitor appends a competitor marker with address, rating, and
// type details in the popup.
func (g *MarkerGroup) AddCompetitor(c model.Competitor) {
	var b strings.Builder
	b.WriteString("<b>" + template.HTMLEscapeString(c.Name) + "</b>")
	if c.Address != "" {
		b.WriteString("<br>" + template.HTMLEscapeString(c.Address))
	}
	if c.Rating != nil {
		fmt.Fprintf(&b, "<br>Bewertung: %.1f", *c.Rating)
	}
	if len(c.Types) > 0 {
		b.WriteString("<br><i>" + template.HTMLEscapeString(strings.Join(c.Types, ", ")) + "</i>")
	}
	g.points = append(g.points, markerPoint{Lat: c.Latitude, Lng: c.Longitude, Popup: b.String()})
}

func (g *MarkerGroup) Name() string    { return g.LayerName }
func (g *MarkerGroup) Clustered() bool { return g.Cluster }

func (g *MarkerGroup) Script() (template.JS, error) {
	points := g.points
	if points == nil {
		points = []markerPoint{}
	}

	var buf bytes.Buffer
	err := markerTemplate.Execute(&buf, map[string]any{
		"Name":    jsString(g.LayerName),
		"Color":   jsString(g.Color),
		"Cluster": g.Cluster,
		"Points":  template.JS(mustJSON(points)),
	})
	if err != nil {
		return "", eris.Wrap(err, "maprender: execute marker template")
	}
	return template.JS(buf.String()), nil
}

var markerTemplate = texttemplate.Must(texttemplate.New("markers").Parse(`(function() {
	var points = {{.Points}};
	{{- if .Cluster}}
	var group = L.markerClusterGroup();
	{{- else}}
	var group = L.layerGroup();
	{{- end}}
	for (var i = 0; i < points.length; i++) {
		var p = points[i];
		L.circleMarker([p.lat, p.lng], {
			radius: 6,
			color: {{.Color}},
			fillColor: {{.Color}},
			fillOpacity: 0.85,
			weight: 1
		}).bindPopup(p.popup).addTo(group);
	}
	group.addTo(map);
	overlays[{{.Name}}] = group;
})();`))
