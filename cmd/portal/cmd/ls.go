package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [prefix]",
	Short: "List the direct children of a directory",
	Long:  "List the subdirectories and documents directly under prefix (default: the repository root).",
	Args:  cobra.RangeArgs(0, 1),
	RunE:  runLs,
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	ctx := commandContext(cmd)

	p, _, cleanup, err := openPortal(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	children, err := p.List(ctx, prefix)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, item := range children {
		name := item.Name
		if item.IsDir() {
			name += "/"
		}
		fmt.Fprintf(out, "%s\t%s\n", item.Kind, name)
	}

	if len(children) == 0 {
		fmt.Fprintln(out, "(no entries)")
	}

	return nil
}
