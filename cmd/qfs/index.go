package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qfs-io/qfs/internal/indexer"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index [name]",
		Short: "Scan and index one collection, or every registered collection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			idx := indexer.New(s)
			progress := func(ev indexer.ProgressEvent) {
				if verbose {
					fmt.Printf("  %s: %s\n", ev.Path, ev.Message)
				}
			}

			var stats indexer.Stats
			if len(args) == 1 {
				fmt.Printf("Indexing collection '%s'...\n", args[0])
				stats, err = idx.IndexCollectionWithProgress(args[0], progress)
			} else {
				fmt.Println("Indexing all collections...")
				stats, err = idx.IndexAllWithProgress(progress)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Scanned %d, indexed %d, skipped %d, removed %d, errors %d (%s)\n",
				stats.FilesScanned, stats.FilesIndexed, stats.FilesSkipped, stats.FilesRemoved,
				stats.Errors, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
