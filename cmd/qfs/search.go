package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qfs-io/qfs/internal/config"
	"github.com/qfs-io/qfs/internal/embed"
	"github.com/qfs-io/qfs/internal/search"
	"github.com/qfs-io/qfs/internal/store"
)

func newSearchCmd() *cobra.Command {
	var (
		mode          string
		limit         int
		minScore      float64
		collection    string
		fromDate      string
		toDate        string
		includeBinary bool
		format        string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents by keyword, vector similarity, or both",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedMode, err := search.ParseMode(mode)
			if err != nil {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			opts := search.Options{
				Mode:          parsedMode,
				Limit:         limit,
				MinScore:      minScore,
				Collection:    collection,
				IncludeBinary: includeBinary,
			}
			if dateRange, err := parseDateRange(fromDate, toDate); err != nil {
				return err
			} else if dateRange != nil {
				opts.DateRange = dateRange
			}

			var vec []float32
			if parsedMode != search.ModeBM25 {
				vec, err = embedQuery(args[0])
				if err != nil {
					return err
				}
			}

			results, err := search.New(s).Search(args[0], vec, opts)
			if err != nil {
				return err
			}
			return printSearchResults(results, format)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "bm25", "search mode: bm25, vector, or hybrid")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum score to include a result")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "restrict results to one collection")
	cmd.Flags().StringVar(&fromDate, "from-date", "", "only documents modified on or after this ISO-8601 date")
	cmd.Flags().StringVar(&toDate, "to-date", "", "only documents modified on or before this ISO-8601 date")
	cmd.Flags().BoolVar(&includeBinary, "include-binary", false, "include binary files in results")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text or json")
	return cmd
}

func parseDateRange(from, to string) (*store.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	var dr store.DateRange
	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from-date %q: %w", from, err)
		}
		dr.From = t
	}
	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return nil, fmt.Errorf("invalid --to-date %q: %w", to, err)
		}
		dr.To = t
	}
	return &dr, nil
}

// embedQuery loads the configured embedder just long enough to embed
// one query string, for CLI invocations that don't keep a server-lived
// embedder around.
func embedQuery(query string) ([]float32, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	embedder, err := embed.New(cfg)
	if err != nil {
		return nil, err
	}
	defer embedder.Close()
	return embed.EmbedOneForQuery(context.Background(), embedder, query)
}

func printSearchResults(results []search.Result, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. [%.4f] %s\n", i+1, r.Score, r.Path)
		if r.Snippet != "" {
			fmt.Printf("   %s\n", strings.ReplaceAll(r.Snippet, "\n", " "))
		}
	}
	return nil
}
