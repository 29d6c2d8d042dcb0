package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"mememeow/community"
)

func newCommunityCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "community",
		Short: "社区表情库",
	}

	withService := func(fn func(cmd *cobra.Command, svc *community.Service, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			svc, err := a.Community()
			if err != nil {
				return err
			}
			return fn(cmd, svc, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "显示社区表情库清单（优先使用缓存）",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, svc *community.Service, args []string) error {
			if _, err := svc.Load(cmd.Context()); err != nil {
				return err
			}
			return printLibs(cmd, svc)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "重新下载社区表情库清单",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, svc *community.Service, args []string) error {
			if _, err := svc.Refresh(cmd.Context()); err != nil {
				return err
			}
			return printLibs(cmd, svc)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "enable <uuid>...",
		Short: "启用表情库",
		Args:  cobra.MinimumNArgs(1),
		RunE: withService(func(cmd *cobra.Command, svc *community.Service, args []string) error {
			for _, id := range args {
				if err := svc.Enable(id); err != nil {
					return err
				}
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "disable <uuid>...",
		Short: "禁用表情库",
		Args:  cobra.MinimumNArgs(1),
		RunE: withService(func(cmd *cobra.Command, svc *community.Service, args []string) error {
			for _, id := range args {
				if err := svc.Disable(id); err != nil {
					return err
				}
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "enabled",
		Short: "列出已启用的表情库",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, svc *community.Service, args []string) error {
			ids, err := svc.Enabled()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		}),
	})

	return cmd
}

func printLibs(cmd *cobra.Command, svc *community.Service) error {
	libs, err := svc.Libraries()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(libs))
	for _, lib := range libs {
		enabled := ""
		if lib.Enabled {
			enabled = "yes"
		}
		rows = append(rows, []string{lib.Name, lib.Version, lib.Author, strings.Join(lib.Tags, ", "), enabled, lib.UUID})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
		{title: "Name", maxWidth: 30},
		{title: "Version", align: text.AlignRight},
		{title: "Author", maxWidth: 20},
		{title: "Tags", maxWidth: 30},
		{title: "Enabled", align: text.AlignCenter},
		{title: "UUID"},
	}, rows))
	fmt.Fprintf(cmd.OutOrStdout(), "%d libraries\n", len(libs))
	return nil
}
