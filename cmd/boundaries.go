package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alpenmark/geomarket/internal/importer"
	"github.com/alpenmark/geomarket/internal/segment"
	"github.com/alpenmark/geomarket/internal/store"
)

var boundariesShpPath string

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Import municipality boundary polygons from a shapefile",
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

		shp := boundariesShpPath
		if shp == "" {
			shp, err = findShapefile(cfg.Data.Path(cfg.Data.BoundariesShapeDir))
			if err != nil {
				return err
			}
		}

		imp := importer.New(st, segment.DefaultProfiles())
		n, err := imp.ImportBoundaries(ctx, shp)
		if err != nil {
			return err
		}

		zap.L().Info("boundary import finished", zap.Int("updated", n))
		return nil
	},
}

// findShapefile locates the first .shp file in a directory.
func findShapefile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.shp"))
	if err != nil {
		return "", eris.Wrap(err, "glob shapefiles")
	}
	if len(matches) == 0 {
		return "", eris.Errorf("no shapefile found in %s", dir)
	}
	return matches[0], nil
}

func init() {
	boundariesCmd.Flags().StringVar(&boundariesShpPath, "shp", "", "path to the boundaries shapefile (default: first .shp in the configured directory)")
	rootCmd.AddCommand(boundariesCmd)
}
