package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qfs-io/qfs/internal/config"
	"github.com/qfs-io/qfs/internal/embed"
	"github.com/qfs-io/qfs/internal/store"
)

func newEmbedCmd() *cobra.Command {
	var (
		force        bool
		model        string
		chunkSize    int
		chunkOverlap int
	)
	cmd := &cobra.Command{
		Use:   "embed [name]",
		Short: "Generate missing vector embeddings for one or every collection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if model != "" {
				cfg.ModelName = model
			}
			if chunkSize > 0 {
				cfg.ChunkSize = chunkSize
			}
			if chunkOverlap > 0 {
				cfg.ChunkOverlap = chunkOverlap
			}

			embedder, err := embed.New(cfg)
			if err != nil {
				return err
			}
			defer embedder.Close()

			collection := ""
			if len(args) == 1 {
				collection = args[0]
			}
			if force {
				if err := forceClearEmbeddings(s, collection); err != nil {
					return err
				}
			}

			hashes, err := s.PendingEmbeddingHashes(collection)
			if err != nil {
				return err
			}
			fmt.Printf("Generating embeddings for %d document(s)...\n", len(hashes))

			ctx := context.Background()
			for _, hash := range hashes {
				content, _, err := s.GetContent(hash)
				if err != nil {
					return err
				}
				chunks := embed.ChunkText(string(content), cfg.ChunkSize, cfg.ChunkOverlap)
				texts := make([]string, len(chunks))
				for i, c := range chunks {
					texts[i] = c.Text
				}
				vectors, err := embedder.Embed(ctx, texts)
				if err != nil {
					return err
				}
				for i, chunk := range chunks {
					if err := s.InsertEmbedding(hash, chunk.Index, chunk.CharOffset, embedder.ModelName(), embed.VectorToBytes(vectors[i])); err != nil {
						return err
					}
				}
				fmt.Print(".")
			}
			fmt.Println("\nDone.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "regenerate embeddings even if already present")
	cmd.Flags().StringVarP(&model, "model", "m", "", "override the configured embedding model")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "override the configured chunk size (words)")
	cmd.Flags().IntVar(&chunkOverlap, "overlap", 0, "override the configured chunk overlap (words)")
	return cmd
}

// forceClearEmbeddings deletes every stored embedding for the documents
// in scope, so the main loop below regenerates all of them rather than
// skipping hashes that already have a (possibly stale) vector.
func forceClearEmbeddings(s *store.Store, collection string) error {
	var docs []store.Document
	var err error
	if collection == "" {
		docs, err = s.ListAllDocuments()
	} else {
		docs, err = s.ListDocuments(collection, "")
	}
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[d.Hash] {
			continue
		}
		seen[d.Hash] = true
		if err := s.DeleteEmbeddings(d.Hash); err != nil {
			return err
		}
	}
	return nil
}
