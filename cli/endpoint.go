package cli

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"mememeow/prefs"
	"mememeow/utils"
)

func newEndpointCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "管理API地址列表",
	}

	withStore := func(fn func(cmd *cobra.Command, store *prefs.Store, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			store, err := a.Prefs()
			if err != nil {
				return err
			}
			return fn(cmd, store, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出API地址",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *prefs.Store, args []string) error {
			return printEndpoints(cmd, store)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <url> [name]",
		Short: "添加API地址",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withStore(func(cmd *cobra.Command, store *prefs.Store, args []string) error {
			name := ""
			if len(args) > 1 {
				name = args[1]
			}
			if err := store.AddEndpoint(name, args[0]); err != nil {
				return err
			}
			return printEndpoints(cmd, store)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <index>",
		Short: "删除API地址",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store *prefs.Store, args []string) error {
			index, err := utils.StringToInt(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			if err := store.RemoveEndpoint(index); err != nil {
				return err
			}
			return printEndpoints(cmd, store)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "use <index>",
		Short: "切换当前API地址",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store *prefs.Store, args []string) error {
			index, err := utils.StringToInt(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			if err := store.SetActiveEndpoint(index); err != nil {
				return err
			}
			return printEndpoints(cmd, store)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "active",
		Short: "输出当前生效的API地址",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *prefs.Store, args []string) error {
			url, err := store.ActiveEndpointURL()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		}),
	})

	return cmd
}

func printEndpoints(cmd *cobra.Command, store *prefs.Store) error {
	list, err := store.Endpoints()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list.URLs))
	for i, e := range list.URLs {
		mark := ""
		if i == list.ActiveIndex {
			mark = "*"
		}
		rows = append(rows, []string{strconv.Itoa(i), mark, e.Name, e.URL})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
		{title: "#", align: text.AlignRight},
		{title: "Active", align: text.AlignCenter},
		{title: "Name"},
		{title: "URL"},
	}, rows))
	return nil
}
