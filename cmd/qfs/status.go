package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := resolveDBPath()
			if _, err := os.Stat(dbPath); err != nil {
				fmt.Println("QFS Status")
				fmt.Println("===========")
				fmt.Printf("Database: %s (not yet created)\n", dbPath)
				return nil
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.GetStats()
			if err != nil {
				return err
			}
			cols, err := s.ListCollections()
			if err != nil {
				return err
			}

			fmt.Println("QFS Status")
			fmt.Println("===========")
			fmt.Printf("Database: %s (%s)\n", dbPath, formatBytes(stats.DatabaseSizeBytes))
			fmt.Printf("Collections: %d\n", stats.Collections)
			fmt.Printf("Total documents: %d\n", stats.TotalDocuments)
			fmt.Printf("Total embeddings: %d\n", stats.TotalEmbeddings)
			for _, c := range cols {
				fmt.Printf("  %-20s %d documents\n", c.Name, stats.PerCollection[c.Name])
			}
			return nil
		},
	}
}
