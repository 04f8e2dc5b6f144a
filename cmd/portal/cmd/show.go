package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/Sternrassler/knowledge-portal/pkg/document"
	"github.com/Sternrassler/knowledge-portal/pkg/portal"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show a document or a directory",
	Long: "Show the metadata and body of a document, or the children of a directory " +
		"when path is not a document.",
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	p, _, cleanup, err := openPortal(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	page, err := p.Browse(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch page.Kind {
	case portal.PageDocument:
		printDocument(out, page.Document)
	case portal.PageDirectory:
		for _, item := range page.Children {
			fmt.Fprintf(out, "%s\t%s\n", item.Kind, item.Path)
		}
	}
	fmt.Fprintf(out, "\n%s\n", page.Links.Blob)

	return nil
}

func printDocument(out io.Writer, doc *document.Document) {
	fmt.Fprintf(out, "# %s\n\n", doc.Title())
	if doc.HasMetadataError() {
		fmt.Fprintf(out, "! %v\n", doc.MetadataErr)
	}
	for _, key := range slices.Sorted(maps.Keys(doc.Metadata)) {
		fmt.Fprintf(out, "%s: %s\n", key, doc.Metadata[key].String())
	}
	fmt.Fprintf(out, "\n%s", doc.Body)
}
