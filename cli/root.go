// Package cli 命令行入口：启动本地服务，或直接读写偏好与社区表情库。
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "mememeow",
		Short:         "MemeMeow 本地后端",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newPrefsCommand(ctx))
	rootCmd.AddCommand(newShortcutCommand(ctx))
	rootCmd.AddCommand(newEndpointCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newCommunityCommand(ctx))

	return rootCmd
}

func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
