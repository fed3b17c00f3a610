package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newMultiGetCmd() *cobra.Command {
	var (
		maxBytes int64
		maxLines int
		format   string
	)
	cmd := &cobra.Command{
		Use:   "multi-get <pattern>",
		Short: "Print multiple documents matched by a glob pattern or comma-separated list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var maxLinesPtr *int
			if cmd.Flags().Changed("max-lines") {
				maxLinesPtr = &maxLines
			}

			results, err := s.MultiGet(args[0], maxBytes, maxLinesPtr)
			if err != nil {
				return err
			}

			if format == "json" {
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			for _, r := range results {
				fmt.Printf("==== %s/%s ====\n", r.Collection, r.Path)
				if r.Skipped {
					fmt.Printf("[SKIPPED: %s]\n", r.SkipReason)
					continue
				}
				fmt.Println(r.Content)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 10240, "skip files larger than this many bytes")
	cmd.Flags().IntVarP(&maxLines, "max-lines", "l", 0, "truncate each file's content to this many lines")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text or json")
	return cmd
}
