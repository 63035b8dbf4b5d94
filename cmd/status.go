package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alpenmark/geomarket/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts and the latest import job",
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

		counts, err := st.Counts(ctx)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println("Data:")
		for _, name := range names {
			fmt.Printf("  %-15s %d\n", name, counts[name])
		}

		job, err := st.LatestImportJob(ctx)
		if err != nil {
			return err
		}
		if job == nil {
			fmt.Println("\nNo import has run yet.")
			return nil
		}

		fmt.Printf("\nLatest import: %s\n", job.ID)
		fmt.Printf("  status:   %s\n", job.Status)
		fmt.Printf("  started:  %s\n", job.StartedAt.Format("2006-01-02 15:04:05"))
		if job.FinishedAt != nil {
			fmt.Printf("  finished: %s\n", job.FinishedAt.Format("2006-01-02 15:04:05"))
		}
		if job.Error != "" {
			fmt.Printf("  error:    %s\n", job.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
