package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var goldenCmd = &cobra.Command{
	Use:   "golden",
	Short: "List the golden documents",
	Long:  "List the golden documents from the manifest, or from a scan of the frontmatter when there is no manifest.",
	Args:  cobra.NoArgs,
	RunE:  runGolden,
}

func init() {
	rootCmd.AddCommand(goldenCmd)
}

func runGolden(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	p, _, cleanup, err := openPortal(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	paths, err := p.Golden(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range paths {
		fmt.Fprintln(out, path)
	}

	if len(paths) == 0 {
		fmt.Fprintln(out, "(no golden documents)")
	}

	return nil
}
