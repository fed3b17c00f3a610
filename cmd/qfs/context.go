package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage human-written path context annotations",
	}
	cmd.AddCommand(newContextAddCmd(), newContextListCmd(), newContextCheckCmd(), newContextRmCmd())
	return cmd
}

func newContextAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path> <description>",
		Short: "Attach a context description to a path prefix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, prefix := parseContextPath(args[0])
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.SetContext(collection, prefix, args[1]); err != nil {
				return err
			}
			fmt.Printf("Set context for %s%s\n", collection, prefix)
			return nil
		},
	}
}

func newContextListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every context annotation, grouped by collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			contexts, err := s.ListContexts("")
			if err != nil {
				return err
			}
			if len(contexts) == 0 {
				fmt.Println("No context annotations.")
				return nil
			}

			lastHeader := ""
			for _, c := range contexts {
				header := "global"
				if c.Collection != nil {
					header = *c.Collection
				}
				if header != lastHeader {
					fmt.Printf("[%s]\n", header)
					lastHeader = header
				}
				fmt.Printf("  %-30s %s\n", c.PathPrefix, c.Context)
			}
			return nil
		},
	}
}

func newContextCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "List collections with no context annotation yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.GetCollectionsWithoutContext()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("Every collection has a context annotation.")
				return nil
			}
			for _, name := range names {
				fmt.Printf("%s has no context. Try: qfs context add %s \"Description here\"\n", name, name)
			}
			return nil
		},
	}
}

func newContextRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a context annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, prefix := parseContextPath(args[0])
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.RemoveContext(collection, prefix); err != nil {
				return err
			}
			fmt.Printf("Removed context for %s%s\n", collection, prefix)
			return nil
		},
	}
}
