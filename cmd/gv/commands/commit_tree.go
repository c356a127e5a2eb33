package commands

import (
	"fmt"
	"time"

	"gitvault/pkg/core"
	"gitvault/pkg/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	commitMsg     string
	commitParents []string
	commitAuthor  string
	commitEmail   string
)

var commitTreeCmd = &cobra.Command{
	Use:   "commit-tree <tree> [-p <parent>]... -m <message>",
	Short: "Create a commit object for a tree",
	Long: `Create a commit pointing at an existing tree, with zero or more parents.
Author defaults to user.name / user.email from the configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if GV == nil {
			return fmt.Errorf("application not initialized")
		}
		if commitMsg == "" {
			return fmt.Errorf("commit message cannot be empty (use -m)")
		}
		ctx := cmd.Context()

		// 1. tree 必须存在且类型正确
		treeID, err := resolveKind(cmd, args[0], core.KindTree)
		if err != nil {
			return err
		}

		// 2. parent 同理
		parents := make([]types.ObjectId, 0, len(commitParents))
		for _, p := range commitParents {
			id, err := resolveKind(cmd, p, core.KindCommit)
			if err != nil {
				return err
			}
			parents = append(parents, id)
		}

		// 3. Author：flag > 配置 > 默认值
		name := firstNonEmpty(commitAuthor, viper.GetString("user.name"), "gitvault")
		email := firstNonEmpty(commitEmail, viper.GetString("user.email"), "gitvault@localhost")
		author := core.Signature{Name: name, Email: email, When: time.Now()}

		msg := commitMsg
		if msg[len(msg)-1] != '\n' {
			msg += "\n"
		}

		commit, err := core.NewCommit(treeID, parents, author, msg)
		if err != nil {
			return fmt.Errorf("failed to create commit object: %w", err)
		}
		id, err := GV.Store.PutObject(ctx, commit.Object())
		if err != nil {
			return fmt.Errorf("failed to store commit: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

// resolveKind 解析 ID 并确认对象类型
func resolveKind(cmd *cobra.Command, input string, want core.ObjectKind) (types.ObjectId, error) {
	id, err := GV.Store.Resolve(cmd.Context(), input)
	if err != nil {
		return types.ZeroId, err
	}
	kind, _, err := GV.Store.Stat(cmd.Context(), id)
	if err != nil {
		return types.ZeroId, err
	}
	if kind != want {
		return types.ZeroId, fmt.Errorf("%s is a %s, not a %s", id, kind, want)
	}
	return id, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(commitTreeCmd)

	commitTreeCmd.Flags().StringVarP(&commitMsg, "message", "m", "", "commit message")
	commitTreeCmd.Flags().StringArrayVarP(&commitParents, "parent", "p", nil, "parent commit (repeatable)")
	commitTreeCmd.Flags().StringVar(&commitAuthor, "author", "", "author name (default user.name)")
	commitTreeCmd.Flags().StringVar(&commitEmail, "email", "", "author email (default user.email)")
}
