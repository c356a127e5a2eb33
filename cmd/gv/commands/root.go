package commands

import (
	"fmt"
	"os"

	"gitvault/pkg/app"
	"gitvault/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// 全局应用实例，供子命令使用
	GV *app.App
)

// 带有该注解的命令不需要打开对象库
const annotationNoRepo = "gv/no-repo"

var rootCmd = &cobra.Command{
	Use:           "gv",
	Short:         "gitvault: a content-addressed object store with git-compatible ids",
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		app.SetupLogger(viper.GetString("log.level"))

		if cmd.Annotations[annotationNoRepo] == "true" {
			return nil
		}
		return openApp(cmd)
	},
}

// openApp 统一初始化 App，已打开时直接复用
func openApp(cmd *cobra.Command) error {
	if GV != nil {
		return nil
	}
	var err error
	GV, err = app.NewApp(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize gitvault: %w\n(Did you run 'gv init'?)", err)
	}
	return nil
}

func closeApp() {
	if GV != nil {
		GV.Close()
		GV = nil
	}
}

// Execute 是入口
func Execute() error {
	defer closeApp()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// 1. 全局参数 --config
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.gv/config.yaml or $HOME/.gv/config.yaml)")

	// 2. 存储参数绑定到 Viper：yaml / 环境变量 / flag 三者任选
	rootCmd.PersistentFlags().String("storage-path", "", "Directory to store objects")
	rootCmd.PersistentFlags().String("storage-type", "", "Backing medium: disk, s3, pebble or sql")
	rootCmd.PersistentFlags().String("compression", "", "Compression at rest: none, zlib, zstd or lz4")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")

	bindings := map[string]string{
		"storage.path":        "storage-path",
		"storage.type":        "storage-type",
		"storage.compression": "compression",
		"log.level":           "log-level",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to bind flag:", err)
			os.Exit(1)
		}
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Config error:", err)
		os.Exit(1)
	}
}
