package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "List every document of the branch",
	Long:  "List every markdown document of the branch sorted by path. Golden documents are marked with *.",
	Args:  cobra.NoArgs,
	RunE:  runTree,
}

func init() {
	treeCmd.Flags().Bool("golden", false, "only list golden documents")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	goldenOnly, _ := cmd.Flags().GetBool("golden")
	ctx := commandContext(cmd)

	p, _, cleanup, err := openPortal(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	snap, err := p.Snapshot(ctx, goldenOnly)
	if err != nil {
		return err
	}

	golden := make(map[string]bool, len(snap.Golden))
	for _, path := range snap.Golden {
		golden[path] = true
	}

	out := cmd.OutOrStdout()
	for _, item := range snap.Items {
		mark := " "
		if golden[item.Path] {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %s\n", mark, item.Path)
	}

	if len(snap.Items) == 0 {
		fmt.Fprintln(out, "(no documents)")
	}

	return nil
}
