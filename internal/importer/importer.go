// Package importer runs the full data ingestion pipeline: load the raw
// files, merge income, compute per-segment weights, and persist.
package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/alpenmark/geomarket/internal/dataset"
	"github.com/alpenmark/geomarket/internal/model"
	"github.com/alpenmark/geomarket/internal/segment"
	"github.com/alpenmark/geomarket/internal/store"
)

// Importer wires the dataset loaders to the store.
type Importer struct {
	store    store.Store
	profiles segment.Profiles
}

// New creates an Importer using the given weight profiles.
func New(st store.Store, profiles segment.Profiles) *Importer {
	return &Importer{store: st, profiles: profiles}
}

// Result summarizes a completed import.
type Result struct {
	JobID  string
	Counts map[string]int
}

// Run executes one import end to end. A job record tracks the run; on
// failure the job is marked failed with the error message and the error
// is returned.
func (imp *Importer) Run(ctx context.Context, files dataset.Files) (*Result, error) {
	job, err := imp.store.CreateImportJob(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := imp.run(ctx, files)
	if err != nil {
		if cErr := imp.store.CompleteImportJob(ctx, job.ID, model.ImportStatusFailed, counts, err.Error()); cErr != nil {
			zap.L().Error("importer: mark job failed", zap.String("job", job.ID), zap.Error(cErr))
		}
		return nil, err
	}

	if err := imp.store.CompleteImportJob(ctx, job.ID, model.ImportStatusComplete, counts, ""); err != nil {
		return nil, err
	}

	zap.L().Info("import complete",
		zap.String("job", job.ID),
		zap.Int("municipalities", counts["municipalities"]),
		zap.Int("income_matched", counts["income_matched"]),
	)
	return &Result{JobID: job.ID, Counts: counts}, nil
}

func (imp *Importer) run(ctx context.Context, files dataset.Files) (map[string]int, error) {
	ds, err := dataset.Load(ctx, files)
	if err != nil {
		return nil, err
	}
	if len(ds.Municipalities) == 0 {
		return nil, eris.New("importer: no municipalities loaded")
	}

	engine := segment.NewEngine(imp.profiles, ds.Hotspots, ds.Publicity)
	engine.ComputeAll(ds.Municipalities)

	counts := map[string]int{
		"income_matched": ds.IncomeMatched,
	}

	n, err := imp.store.UpsertMunicipalities(ctx, ds.Municipalities)
	if err != nil {
		return counts, err
	}
	counts["municipalities"] = n

	n, err = imp.store.ReplaceSites(ctx, model.SiteKindHotspot, ds.Hotspots)
	if err != nil {
		return counts, err
	}
	counts["hotspots"] = n

	n, err = imp.store.ReplaceSites(ctx, model.SiteKindAdvertising, ds.Publicity)
	if err != nil {
		return counts, err
	}
	counts["advertising"] = n

	n, err = imp.store.ReplaceCompetitors(ctx, ds.Competitors)
	if err != nil {
		return counts, err
	}
	counts["competitors"] = n

	return counts, nil
}

// ImportBoundaries attaches shapefile geometries to already-imported
// municipalities. Boundaries without a matching municipality are skipped.
func (imp *Importer) ImportBoundaries(ctx context.Context, shpPath string) (int, error) {
	boundaries, err := dataset.ReadBoundaries(shpPath)
	if err != nil {
		return 0, err
	}

	var updated int
	for _, b := range boundaries {
		err := imp.store.UpdateBoundary(ctx, b.BFSNumber, b.Geometry, b.EWKB)
		if err != nil {
			zap.L().Debug("importer: boundary skipped",
				zap.String("bfs", b.BFSNumber),
				zap.String("name", b.Name),
				zap.Error(err))
			continue
		}
		updated++
	}

	zap.L().Info("boundaries imported",
		zap.Int("read", len(boundaries)),
		zap.Int("updated", updated),
	)
	return updated, nil
}
