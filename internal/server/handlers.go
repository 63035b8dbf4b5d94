package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	geojson "github.com/paulmach/go.geojson"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/alpenmark/geomarket/internal/geo"
	"github.com/alpenmark/geomarket/internal/maprender"
	"github.com/alpenmark/geomarket/internal/model"
	"github.com/alpenmark/geomarket/internal/segment"
)

const topN = 10

// baseMapKey is the cache key for the segment-less fallback map.
const baseMapKey = "_base"

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) mapCenter() geo.LatLng {
	return geo.LatLng{Lat: s.cfg.Map.CenterLat, Lng: s.cfg.Map.CenterLng}
}

// handleGetMap renders the map for the requested segment. A missing or
// unknown segment key falls back to the empty base map.
func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("segment")
	seg, ok := segment.ByKey(key)

	cacheKey := baseMapKey
	if ok {
		cacheKey = seg.Key
	}

	if cached := s.cache.Get(cacheKey); cached != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Cache", "hit")
		_, _ = w.Write(cached)
		return
	}

	var html []byte
	var err error
	if ok {
		html, err = s.renderSegmentMap(r, seg)
	} else {
		m := maprender.ComposeBaseMap(s.mapCenter(), s.cfg.Map.Zoom, s.cfg.Map.TileURL, s.cfg.Map.Attribution)
		html, err = m.Render()
	}
	if err != nil {
		zap.L().Error("server: render map", zap.String("segment", key), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "map rendering failed")
		return
	}

	s.cache.Put(cacheKey, html)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Cache", "miss")
	_, _ = w.Write(html)
}

func (s *Server) renderSegmentMap(r *http.Request, seg segment.Segment) ([]byte, error) {
	ctx := r.Context()

	munis, err := s.store.ListMunicipalities(ctx)
	if err != nil {
		return nil, err
	}
	hotspots, err := s.store.ListSites(ctx, model.SiteKindHotspot)
	if err != nil {
		return nil, err
	}
	ads, err := s.store.ListSites(ctx, model.SiteKindAdvertising)
	if err != nil {
		return nil, err
	}
	competitors, err := s.store.ListCompetitors(ctx)
	if err != nil {
		return nil, err
	}

	m, err := maprender.ComposeSegmentMap(maprender.ComposeInput{
		Segment:        seg,
		Municipalities: munis,
		Hotspots:       hotspots,
		Advertising:    ads,
		Competitors:    competitors,
		Center:         s.mapCenter(),
		Zoom:           s.cfg.Map.Zoom,
		TileURL:        s.cfg.Map.TileURL,
		Attribution:    s.cfg.Map.Attribution,
	})
	if err != nil {
		return nil, err
	}
	return m.Render()
}

// handleStatistics returns the top municipalities per segment, keyed by
// display name. Every segment appears even when its list is empty.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.collectStatistics(r)
	if err != nil {
		zap.L().Error("server: collect statistics", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "statistics query failed")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) collectStatistics(r *http.Request) (map[string][]model.RankEntry, error) {
	stats := make(map[string][]model.RankEntry, len(segment.All))
	for _, seg := range segment.All {
		entries, err := s.store.TopBySegment(r.Context(), seg.Key, topN)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []model.RankEntry{}
		}
		stats[seg.DisplayName] = entries
	}
	return stats, nil
}

// handleStatisticsExport writes the per-segment rankings as an XLSX
// workbook, one sheet per segment.
func (s *Server) handleStatisticsExport(w http.ResponseWriter, r *http.Request) {
	f := xlsx.NewFile()

	for _, seg := range segment.All {
		entries, err := s.store.TopBySegment(r.Context(), seg.Key, topN)
		if err != nil {
			zap.L().Error("server: export statistics", zap.String("segment", seg.Key), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "statistics query failed")
			return
		}

		sheet, err := f.AddSheet(seg.DisplayName)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "workbook assembly failed")
			return
		}

		header := sheet.AddRow()
		header.AddCell().SetString("Gemeinde")
		header.AddCell().SetString("Gewichtung")
		for _, e := range entries {
			row := sheet.AddRow()
			row.AddCell().SetString(e.Name)
			row.AddCell().SetFloat(e.Weight)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="statistik.xlsx"`)
	if err := f.Write(w); err != nil {
		zap.L().Error("server: write xlsx", zap.Error(err))
	}
}

// handleSegments lists the available segments in display order.
func (s *Server) handleSegments(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, segment.All)
}

// municipalityDetail is the municipality plus the point-layer counts that
// fall inside its boundary, when one has been imported.
type municipalityDetail struct {
	*model.Municipality
	SitesWithin *siteCounts `json:"sites_within,omitempty"`
}

type siteCounts struct {
	Hotspots    int `json:"hotspots"`
	Advertising int `json:"advertising"`
}

func (s *Server) handleMunicipality(w http.ResponseWriter, r *http.Request) {
	bfs := chi.URLParam(r, "bfs")

	m, err := s.store.GetMunicipality(r.Context(), bfs)
	if err != nil {
		zap.L().Error("server: get municipality", zap.String("bfs", bfs), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "municipality query failed")
		return
	}
	if m == nil {
		respondError(w, http.StatusNotFound, "municipality not found")
		return
	}

	detail := municipalityDetail{Municipality: m}
	if len(m.Geometry) > 0 {
		counts, err := s.siteCountsWithin(r, m)
		if err != nil {
			zap.L().Warn("server: count sites in boundary", zap.String("bfs", bfs), zap.Error(err))
		} else {
			detail.SitesWithin = counts
		}
	}
	respondJSON(w, http.StatusOK, detail)
}

// siteCountsWithin counts hotspot and advertising sites inside the
// municipality's boundary polygon.
func (s *Server) siteCountsWithin(r *http.Request, m *model.Municipality) (*siteCounts, error) {
	g, err := geojson.UnmarshalGeometry(m.Geometry)
	if err != nil {
		return nil, err
	}
	boundary, err := geo.ToGeom(g)
	if err != nil {
		return nil, err
	}

	var counts siteCounts
	for _, kind := range []string{model.SiteKindHotspot, model.SiteKindAdvertising} {
		sites, err := s.store.ListSites(r.Context(), kind)
		if err != nil {
			return nil, err
		}
		var n int
		for _, site := range sites {
			if geo.Contains(boundary, geo.LatLng{Lat: site.Latitude, Lng: site.Longitude}) {
				n++
			}
		}
		if kind == model.SiteKindHotspot {
			counts.Hotspots = n
		} else {
			counts.Advertising = n
		}
	}
	return &counts, nil
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.LatestImportJob(r.Context())
	if err != nil {
		zap.L().Error("server: import status", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "import status query failed")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "no import has run")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.cache.Stats())
}
