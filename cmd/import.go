package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alpenmark/geomarket/internal/dataset"
	"github.com/alpenmark/geomarket/internal/importer"
	"github.com/alpenmark/geomarket/internal/segment"
	"github.com/alpenmark/geomarket/internal/store"
)

var importWithBoundaries bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load data files, compute segment weights, and persist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.New(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		profiles, err := segment.LoadProfiles(cfg.Data.Path(cfg.Data.SegmentsYAML))
		if err != nil {
			return err
		}

		imp := importer.New(st, profiles)
		result, err := imp.Run(ctx, dataset.Files{
			MunicipalitiesCSV: cfg.Data.Path(cfg.Data.MunicipalitiesCSV),
			IncomeCSV:         cfg.Data.Path(cfg.Data.IncomeCSV),
			HotspotsGeoJSON:   cfg.Data.Path(cfg.Data.HotspotsGeoJSON),
			PublicityGeoJSON:  cfg.Data.Path(cfg.Data.PublicityGeoJSON),
			CompetitorsJSON:   cfg.Data.Path(cfg.Data.CompetitorsJSON),
			MatchThreshold:    cfg.Data.MatchThreshold,
		})
		if err != nil {
			return err
		}

		if importWithBoundaries {
			shp, err := findShapefile(cfg.Data.Path(cfg.Data.BoundariesShapeDir))
			if err != nil {
				return err
			}
			if _, err := imp.ImportBoundaries(ctx, shp); err != nil {
				return err
			}
		}

		zap.L().Info("import finished", zap.String("job", result.JobID))
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importWithBoundaries, "with-boundaries", false, "also import municipality boundaries from the shapefile directory")
	rootCmd.AddCommand(importCmd)
}
