package cli

import (
	"github.com/spf13/cobra"

	"mememeow/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动本地HTTP服务并注册快捷键",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx.console = true
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			if port == 0 {
				port = a.Config.Server.Port
			}

			// 快捷键注册失败不影响服务启动，界面可通过接口重新设置
			if m, err := a.Hotkeys(); err != nil {
				a.Log.Warnf("快捷键管理器初始化失败: %v", err)
			} else if _, err := m.Refresh(); err != nil {
				a.Log.Warnf("快捷键注册失败: %v", err)
			}

			return server.New(a).Run(cmd.Context(), port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "监听端口，默认取配置 server.port")
	return cmd
}
