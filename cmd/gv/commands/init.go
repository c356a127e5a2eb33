package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"gitvault/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Initialize a gitvault repository",
	Long:        `Create an empty gitvault repository (.gv/objects) or report an existing one.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoRepo: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		// 1. storage.path 默认是 <cwd>/.gv/objects
		objectsPath := viper.GetString("storage.path")
		if objectsPath == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			objectsPath = filepath.Join(wd, config.RepoDir, "objects")
		}
		repoPath := filepath.Dir(objectsPath)

		// 2. 检查是否已存在
		if _, err := os.Stat(objectsPath); err == nil {
			fmt.Fprintf(out, "gitvault repository already exists in %s\n", repoPath)
			return nil
		}

		// 3. 创建目录结构；非 disk 介质只需要仓库目录
		dir := objectsPath
		if t := viper.GetString("storage.type"); t != "" && t != "disk" {
			dir = repoPath
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create repo directory: %w", err)
		}

		fmt.Fprintf(out, "Initialized empty gitvault repository in %s\n", repoPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
