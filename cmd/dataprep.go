package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alpenmark/geomarket/internal/dataset"
)

var dataprepSample bool

var dataprepCmd = &cobra.Command{
	Use:   "dataprep",
	Short: "Check input data files, optionally creating sample data",
	RunE: func(cmd *cobra.Command, args []string) error {
		files := dataset.Files{
			MunicipalitiesCSV: cfg.Data.Path(cfg.Data.MunicipalitiesCSV),
			IncomeCSV:         cfg.Data.Path(cfg.Data.IncomeCSV),
			HotspotsGeoJSON:   cfg.Data.Path(cfg.Data.HotspotsGeoJSON),
			PublicityGeoJSON:  cfg.Data.Path(cfg.Data.PublicityGeoJSON),
			CompetitorsJSON:   cfg.Data.Path(cfg.Data.CompetitorsJSON),
		}

		missing := dataset.RequiredFiles(files)
		if len(missing) == 0 {
			fmt.Println("All required data files are present.")
			return nil
		}

		fmt.Println("Missing data files:")
		for _, path := range missing {
			fmt.Printf("  - %s\n", path)
		}

		if !dataprepSample {
			fmt.Println("\nRun with --sample to create sample data for testing.")
			return nil
		}

		created, err := dataset.WriteSampleData(files, cfg.Data.Path(cfg.Data.SegmentsYAML))
		if err != nil {
			return err
		}
		fmt.Println("\nCreated sample files:")
		for _, path := range created {
			fmt.Printf("  - %s\n", path)
		}
		return nil
	},
}

func init() {
	dataprepCmd.Flags().BoolVar(&dataprepSample, "sample", false, "create sample data files for any that are missing")
	rootCmd.AddCommand(dataprepCmd)
}
