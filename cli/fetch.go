package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "fetch [url...]",
		Short: "按超时分档依次下载，未指定地址时使用API地址列表",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			urls := args
			if len(urls) == 0 {
				if urls, err = a.ActiveEndpointCandidates(); err != nil {
					return err
				}
			}

			res, err := a.Fetcher().Fetch(cmd.Context(), urls)
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, res.Body, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes (tier %d, timeout %s)\n",
				res.URL, len(res.Body), res.Tier, res.Timeout)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "保存响应内容到文件")
	return cmd
}
