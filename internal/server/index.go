package server

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/alpenmark/geomarket/internal/segment"
)

// handleIndex serves the dashboard shell: segment navigation, the map
// iframe, and a statistics sidebar fed by /api/statistics.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := struct {
		Segments []segment.Segment
		Default  string
	}{
		Segments: segment.All,
		Default:  segment.Default().Key,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		zap.L().Error("server: render index", zap.Error(err))
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Geomarketing</title>
<style>
* { box-sizing: border-box; }
body { margin: 0; font-family: system-ui, sans-serif; display: flex; flex-direction: column; height: 100vh; }
header { background: #1f2937; color: #fff; padding: 10px 16px; display: flex; align-items: center; gap: 16px; }
header h1 { font-size: 18px; margin: 0; }
nav a { color: #d1d5db; text-decoration: none; margin-right: 10px; padding: 4px 8px; border-radius: 4px; }
nav a.active { background: #374151; color: #fff; }
main { flex: 1; display: flex; min-height: 0; }
iframe { flex: 1; border: 0; }
aside { width: 320px; overflow-y: auto; border-left: 1px solid #e5e7eb; padding: 12px 16px; }
aside h2 { font-size: 14px; margin: 12px 0 4px; }
aside ol { margin: 0; padding-left: 20px; font-size: 13px; }
aside .weight { color: #6b7280; }
</style>
</head>
<body>
<header>
<h1>Geomarketing</h1>
<nav id="nav">
{{- range .Segments}}
<a href="#" data-segment="{{.Key}}">{{.DisplayName}}</a>
{{- end}}
</nav>
</header>
<main>
<iframe id="map" src="/get_map?segment={{.Default}}" title="Karte"></iframe>
<aside id="stats"><p>Statistiken werden geladen&hellip;</p></aside>
</main>
<script>
var nav = document.getElementById('nav');
var frame = document.getElementById('map');
function activate(key) {
	frame.src = '/get_map?segment=' + encodeURIComponent(key);
	var links = nav.querySelectorAll('a');
	for (var i = 0; i < links.length; i++) {
		links[i].classList.toggle('active', links[i].dataset.segment === key);
	}
}
nav.addEventListener('click', function(e) {
	if (e.target.dataset.segment) {
		e.preventDefault();
		activate(e.target.dataset.segment);
	}
});
activate({{.Default}});

function renderStats(stats) {
	var el = document.getElementById('stats');
	el.innerHTML = '';
	Object.keys(stats).sort().forEach(function(name) {
		var h = document.createElement('h2');
		h.textContent = name;
		el.appendChild(h);
		var ol = document.createElement('ol');
		stats[name].forEach(function(entry) {
			var li = document.createElement('li');
			li.textContent = entry.name + ' ';
			var span = document.createElement('span');
			span.className = 'weight';
			span.textContent = '(' + entry.weight.toFixed(2) + ')';
			li.appendChild(span);
			ol.appendChild(li);
		});
		el.appendChild(ol);
	});
}
fetch('/api/statistics')
	.then(function(r) { return r.json(); })
	.then(renderStats)
	.catch(function() {
		document.getElementById('stats').innerHTML = '<p>Statistiken nicht verfügbar.</p>';
	});
</script>
</body>
</html>
`))
