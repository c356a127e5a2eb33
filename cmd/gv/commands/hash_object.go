package commands

import (
	"fmt"
	"io"
	"os"

	"gitvault/pkg/core"

	"github.com/spf13/cobra"
)

var (
	hashWrite bool
	hashKind  string
	hashStdin bool
)

var hashObjectCmd = &cobra.Command{
	Use:   "hash-object [file]",
	Short: "Compute the object id of a file and optionally store it",
	Long: `Compute the git-compatible object id for the content of a file (or stdin).
With -w the object is also written into the repository.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationNoRepo: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := core.ParseKind(hashKind)
		if err != nil {
			return err
		}

		var payload []byte
		switch {
		case hashStdin:
			payload, err = io.ReadAll(cmd.InOrStdin())
		case len(args) == 1:
			payload, err = os.ReadFile(args[0])
		default:
			return fmt.Errorf("either a file or --stdin is required")
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		// 不写库时只做纯计算，无需打开仓库
		if !hashWrite {
			fmt.Fprintln(cmd.OutOrStdout(), core.Hash(kind, payload))
			return nil
		}

		if err := openApp(cmd); err != nil {
			return err
		}
		id, err := GV.Store.Put(cmd.Context(), kind, payload)
		if err != nil {
			return fmt.Errorf("failed to write object: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashObjectCmd)

	hashObjectCmd.Flags().BoolVarP(&hashWrite, "write", "w", false, "write the object into the repository")
	hashObjectCmd.Flags().StringVarP(&hashKind, "type", "t", string(core.KindBlob), "object kind: blob, tree, commit or tag")
	hashObjectCmd.Flags().BoolVar(&hashStdin, "stdin", false, "read the object from stdin")
}
