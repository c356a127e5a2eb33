package commands

import (
	"fmt"
	"os"

	"gitvault/pkg/core"
	"gitvault/pkg/exporter"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

var checkoutTreeCmd = &cobra.Command{
	Use:   "checkout-tree <tree> <dir>",
	Short: "Write the files of a tree into a directory",
	Long: `Restore every blob of a tree (recursively) into the target directory.
Existing files with the same path are overwritten; other files are left alone.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if GV == nil {
			return fmt.Errorf("application not initialized")
		}

		treeID, err := resolveKind(cmd, args[0], core.KindTree)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(args[1], 0o755); err != nil {
			return fmt.Errorf("failed to create target dir: %w", err)
		}

		files := 0
		exp := exporter.NewExporter(GV.Store)
		err = exp.RestoreTree(cmd.Context(), treeID, osfs.New(args[1]), "", func(string, core.TreeEntry) {
			files++
		})
		if err != nil {
			return fmt.Errorf("checkout failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "restored %d files into %s\n", files, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkoutTreeCmd)
}
