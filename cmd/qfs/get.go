package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qfs-io/qfs/internal/pathutil"
	"github.com/qfs-io/qfs/internal/store"
)

// cliInvalidPathMessage is the CLI's own wording for an unresolvable
// get path: unlike the MCP tool's equivalent error, it doesn't mention
// the "#abc123" docid example, matching the reference CLI's message.
const cliInvalidPathMessage = "Path must be in format 'collection/relative_path' or docid"

func newGetCmd() *cobra.Command {
	var (
		from        int
		maxLines    int
		lineNumbers bool
		format      string
	)
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print one document's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawPath, line := pathutil.ParsePathWithLine(args[0])
			rawPath = pathutil.ParseQfsURI(rawPath)

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var doc store.Document
			if pathutil.IsDocid(rawPath) {
				doc, err = s.GetDocumentByDocid(pathutil.NormalizeDocid(rawPath))
			} else {
				collection, relPath, ok := pathutil.SplitCollectionPath(rawPath)
				if !ok {
					return fmt.Errorf("%s", cliInvalidPathMessage)
				}
				doc, err = s.GetDocument(collection, relPath)
			}
			if err != nil {
				return err
			}

			content, _, err := s.GetContent(doc.Hash)
			if err != nil {
				return err
			}
			text := string(content)

			var fromPtr *int
			if cmd.Flags().Changed("from") {
				fromPtr = &from
			}
			if line != nil {
				fromPtr = line
			}
			var maxPtr *int
			if cmd.Flags().Changed("lines") {
				maxPtr = &maxLines
			}
			if fromPtr != nil || maxPtr != nil {
				text = pathutil.ExtractLines(text, fromPtr, maxPtr)
			}
			if lineNumbers {
				start := 1
				if fromPtr != nil {
					start = *fromPtr
				}
				text = pathutil.AddLineNumbers(text, start)
			}

			if format == "json" {
				data, err := json.MarshalIndent(map[string]any{
					"collection": doc.Collection,
					"path":       doc.Path,
					"docid":      doc.Docid(),
					"content":    text,
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Println(text)
			return nil
		},
	}
	cmd.Flags().IntVar(&from, "from", 1, "1-indexed line to start from")
	cmd.Flags().IntVarP(&maxLines, "lines", "l", 0, "maximum number of lines to print")
	cmd.Flags().BoolVar(&lineNumbers, "line-numbers", false, "prefix each line with its line number")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text or json")
	return cmd
}
