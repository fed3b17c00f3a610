package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qfs-io/qfs/internal/store"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database if it doesn't already exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Println("Initialized database at", resolveDBPath())
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	var patterns, excludes []string
	cmd := &cobra.Command{
		Use:   "add <name> <path>",
		Short: "Register a directory as a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.AddCollection(store.Collection{
				Name:    name,
				Root:    abs,
				Include: patterns,
				Exclude: excludes,
			}); err != nil {
				return err
			}
			fmt.Printf("Added collection '%s' at %s\n", name, abs)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&patterns, "pattern", "p", nil, "include glob pattern (repeatable; default: all files)")
	cmd.Flags().StringArrayVarP(&excludes, "exclude", "e", nil, "exclude glob pattern (repeatable)")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a collection and its indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.RemoveCollection(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed collection '%s'\n", args[0])
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			cols, err := s.ListCollections()
			if err != nil {
				return err
			}
			return printCollections(cols, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text or json")
	return cmd
}

func printCollections(cols []store.Collection, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(cols, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	if len(cols) == 0 {
		fmt.Println("No collections registered.")
		return nil
	}
	for _, c := range cols {
		fmt.Printf("%-20s %s\n", c.Name, c.Root)
	}
	return nil
}

func newLsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List collections, or documents within one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			collection, prefix, hasCollection := parseLsPath(raw)

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if !hasCollection {
				cols, err := s.ListCollections()
				if err != nil {
					return err
				}
				return printCollections(cols, format)
			}

			docs, err := s.ListDocuments(collection, prefix)
			if err != nil {
				return err
			}
			return printDocumentListing(docs, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text or json")
	return cmd
}

func printDocumentListing(docs []store.Document, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	for _, d := range docs {
		fmt.Printf("%10s  %s  %s\n", formatBytes(d.Size), formatLsTime(d.ModifiedAt), d.Path)
	}
	return nil
}
