package commands

import (
	"errors"
	"fmt"

	"gitvault/pkg/exporter"
	"gitvault/pkg/storage"

	"github.com/spf13/cobra"
)

// ErrMissingObject 对应 cat-file -e 的非零退出
var ErrMissingObject = errors.New("object does not exist")

var (
	catType   bool
	catSize   bool
	catPretty bool
	catExists bool
)

var catFileCmd = &cobra.Command{
	Use:   "cat-file (-t | -s | -p | -e) <object>",
	Short: "Show kind, size or content of a repository object",
	Long: `Look up an object by full id or unique prefix (at least 2 hex characters).
Content is re-verified against its id before anything is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if GV == nil {
			return fmt.Errorf("application not initialized")
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		id, err := GV.Store.Resolve(ctx, args[0])
		if err != nil {
			if catExists && errors.Is(err, storage.ErrNotFound) {
				return ErrMissingObject
			}
			return err
		}

		switch {
		case catExists:
			return nil
		case catType:
			kind, _, err := GV.Store.Stat(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, kind)
		case catSize:
			_, size, err := GV.Store.Stat(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, size)
		case catPretty:
			obj, err := GV.Store.Get(ctx, id)
			if err != nil {
				return err
			}
			return exporter.PrintObject(out, obj)
		default:
			return fmt.Errorf("one of -t, -s, -p or -e is required")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catFileCmd)

	catFileCmd.Flags().BoolVarP(&catType, "type", "t", false, "show the object kind")
	catFileCmd.Flags().BoolVarP(&catSize, "size", "s", false, "show the payload size")
	catFileCmd.Flags().BoolVarP(&catPretty, "pretty", "p", false, "pretty-print the object content")
	catFileCmd.Flags().BoolVarP(&catExists, "exists", "e", false, "exit with an error if the object is missing")
	catFileCmd.MarkFlagsMutuallyExclusive("type", "size", "pretty", "exists")
}
