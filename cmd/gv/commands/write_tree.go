package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"gitvault/pkg/ignore"
	"gitvault/pkg/treebuilder"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

var writeTreeCmd = &cobra.Command{
	Use:   "write-tree [dir]",
	Short: "Store a directory as blobs and trees and print the root tree id",
	Long: `Walk a directory (default: current directory), store every file as a blob
and every non-empty directory as a tree. Paths matched by .gvignore are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if GV == nil {
			return fmt.Errorf("application not initialized")
		}

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		matcher, err := ignore.NewMatcher(abs)
		if err != nil {
			return fmt.Errorf("failed to load ignore rules: %w", err)
		}

		start := time.Now()
		res, err := treebuilder.NewBuilder(GV.Store, osfs.New(abs), matcher).Build(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to build tree: %w", err)
		}

		slog.Debug("tree written",
			"root", res.Root,
			"blobs", res.Blobs,
			"trees", res.Trees,
			"duration", time.Since(start),
		)
		fmt.Fprintln(cmd.OutOrStdout(), res.Root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeTreeCmd)
}
