package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qfs-io/qfs/internal/config"
	"github.com/qfs-io/qfs/internal/embed"
	"github.com/qfs-io/qfs/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP stdio server for AI agent integration",
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
			embedder, err := embed.New(cfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, "warning: embedder unavailable, vector/hybrid search disabled:", err)
				embedder = nil
			} else {
				defer embedder.Close()
			}

			srv := mcpserver.New(s, embedder)
			return srv.Run(context.Background(), os.Stdin, os.Stdout)
		},
	}
}
