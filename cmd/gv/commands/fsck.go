package commands

import (
	"errors"
	"fmt"
	"sort"

	"gitvault/pkg/core"
	"gitvault/pkg/odb"

	"github.com/spf13/cobra"
)

// ErrDamaged 表示 fsck 发现了坏对象，命令以非零状态退出
var ErrDamaged = errors.New("repository contains damaged objects")

var fsckConcurrency int

var fsckCmd = &cobra.Command{
	Use:   "fsck",
	Short: "Verify every object in the repository",
	Long:  `Re-hash every stored object and report corrupt (hash mismatch) and malformed (bad structure) objects.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if GV == nil {
			return fmt.Errorf("application not initialized")
		}
		out := cmd.OutOrStdout()

		report, err := odb.Fsck(cmd.Context(), GV.Store, fsckConcurrency)
		if err != nil {
			return fmt.Errorf("fsck failed: %w", err)
		}

		for _, p := range report.Corrupt {
			fmt.Fprintf(out, "corrupt %s: %v\n", p.ID, p.Err)
		}
		for _, p := range report.Malformed {
			fmt.Fprintf(out, "malformed %s: %v\n", p.ID, p.Err)
		}

		kinds := make([]string, 0, len(report.Counts))
		for k := range report.Counts {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(out, "%-6s %d\n", k, report.Counts[core.ObjectKind(k)])
		}
		fmt.Fprintf(out, "checked %d objects\n", report.Total())

		if !report.OK() {
			return fmt.Errorf("%w: %d corrupt, %d malformed", ErrDamaged, len(report.Corrupt), len(report.Malformed))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fsckCmd)

	fsckCmd.Flags().IntVarP(&fsckConcurrency, "jobs", "j", 0, "parallel verifications (default 2*NumCPU)")
}
