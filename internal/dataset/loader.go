package dataset

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alpenmark/geomarket/internal/model"
)

// Files names the input files for a full dataset load. The municipality
// register is required; every other file is optional and yields an empty
// layer when absent.
type Files struct {
	MunicipalitiesCSV string
	IncomeCSV         string
	HotspotsGeoJSON   string
	PublicityGeoJSON  string
	CompetitorsJSON   string
	MatchThreshold    float64
}

// Dataset is the result of a full load.
type Dataset struct {
	Municipalities []model.Municipality
	Hotspots       []model.PointSite
	Publicity      []model.PointSite
	Competitors    []model.Competitor
	IncomeMatched  int
}

// Load reads all input files. The point layers are independent and loaded
// concurrently; income is merged onto the municipalities afterwards.
func Load(ctx context.Context, files Files) (*Dataset, error) {
	ds := &Dataset{}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, err := os.Open(files.MunicipalitiesCSV)
		if err != nil {
			return eris.Wrap(err, "dataset: open municipalities CSV")
		}
		defer f.Close() //nolint:errcheck

		munis, err := ReadMunicipalitiesCSV(f)
		if err != nil {
			return err
		}
		ds.Municipalities = munis
		return nil
	})

	g.Go(func() error {
		sites, err := loadSites(files.HotspotsGeoJSON, model.SiteKindHotspot)
		if err != nil {
			return err
		}
		ds.Hotspots = sites
		return nil
	})

	g.Go(func() error {
		sites, err := loadSites(files.PublicityGeoJSON, model.SiteKindAdvertising)
		if err != nil {
			return err
		}
		ds.Publicity = sites
		return nil
	})

	g.Go(func() error {
		if files.CompetitorsJSON == "" {
			return nil
		}
		f, err := os.Open(files.CompetitorsJSON)
		if os.IsNotExist(err) {
			zap.L().Warn("dataset: competitors file missing, skipping layer",
				zap.String("path", files.CompetitorsJSON))
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "dataset: open competitors JSON")
		}
		defer f.Close() //nolint:errcheck

		competitors, err := ReadCompetitors(f)
		if err != nil {
			return err
		}
		ds.Competitors = competitors
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Income merge needs the municipality names, so it runs after the load.
	if files.IncomeCSV != "" {
		f, err := os.Open(files.IncomeCSV)
		switch {
		case os.IsNotExist(err):
			zap.L().Warn("dataset: income file missing, municipalities keep nil income",
				zap.String("path", files.IncomeCSV))
		case err != nil:
			return nil, eris.Wrap(err, "dataset: open income CSV")
		default:
			defer f.Close() //nolint:errcheck
			rows, err := ReadIncomeCSV(f)
			if err != nil {
				return nil, err
			}
			threshold := files.MatchThreshold
			if threshold <= 0 {
				threshold = 0.6
			}
			ds.IncomeMatched = MergeIncome(ds.Municipalities, rows, threshold)
		}
	}

	zap.L().Info("dataset loaded",
		zap.Int("municipalities", len(ds.Municipalities)),
		zap.Int("hotspots", len(ds.Hotspots)),
		zap.Int("publicity", len(ds.Publicity)),
		zap.Int("competitors", len(ds.Competitors)),
		zap.Int("income_matched", ds.IncomeMatched),
	)
	return ds, nil
}

func loadSites(path, kind string) ([]model.PointSite, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		zap.L().Warn("dataset: layer file missing, skipping",
			zap.String("kind", kind),
			zap.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s layer", kind)
	}
	defer f.Close() //nolint:errcheck

	return ReadPointSites(f, kind)
}
