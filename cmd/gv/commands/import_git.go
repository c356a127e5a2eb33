package commands

import (
	"fmt"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/importer"

	"github.com/spf13/cobra"
)

var importGitCmd = &cobra.Command{
	Use:   "import-git <repo>",
	Short: "Copy every object of a git repository into gitvault",
	Long: `Read all loose and packed objects of a git repository (worktree or bare)
and store them. Every stored id is checked against the id git reports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if GV == nil {
			return fmt.Errorf("application not initialized")
		}

		start := time.Now()
		stats, err := importer.New(GV.Store).ImportRepo(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, k := range []core.ObjectKind{core.KindBlob, core.KindTree, core.KindCommit, core.KindTag} {
			fmt.Fprintf(out, "%-6s %d\n", k, stats.ByKind[k])
		}
		fmt.Fprintf(out, "imported %d objects in %s\n", stats.Objects, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importGitCmd)
}
