// Package store persists municipalities, point layers, competitors, and
// import jobs behind a driver-agnostic interface.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/alpenmark/geomarket/internal/config"
	"github.com/alpenmark/geomarket/internal/model"
	"github.com/alpenmark/geomarket/internal/segment"
)

// Store defines the persistence interface for the geomarketing data.
type Store interface {
	// Municipalities
	UpsertMunicipalities(ctx context.Context, munis []model.Municipality) (int, error)
	UpdateBoundary(ctx context.Context, bfs string, geometry json.RawMessage, ewkb []byte) error
	GetMunicipality(ctx context.Context, bfs string) (*model.Municipality, error)
	ListMunicipalities(ctx context.Context) ([]model.Municipality, error)
	TopBySegment(ctx context.Context, segmentKey string, n int) ([]model.RankEntry, error)

	// Point layers
	ReplaceSites(ctx context.Context, kind string, sites []model.PointSite) (int, error)
	ListSites(ctx context.Context, kind string) ([]model.PointSite, error)
	ReplaceCompetitors(ctx context.Context, competitors []model.Competitor) (int, error)
	ListCompetitors(ctx context.Context) ([]model.Competitor, error)

	// Import jobs
	CreateImportJob(ctx context.Context) (*model.ImportJob, error)
	CompleteImportJob(ctx context.Context, id string, status model.ImportStatus, counts map[string]int, errMsg string) error
	LatestImportJob(ctx context.Context) (*model.ImportJob, error)

	// Introspection
	Counts(ctx context.Context) (map[string]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New creates a Store for the configured driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// validSegmentKey guards segment keys that end up inside SQL expressions
// (SQLite json_extract paths cannot be bound as parameters).
func validSegmentKey(key string) error {
	if _, ok := segment.ByKey(key); !ok {
		return eris.Errorf("store: invalid segment key %q", key)
	}
	return nil
}
