package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPrefsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "查看或修改偏好设置",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "以JSON输出当前偏好设置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			store, err := a.Prefs()
			if err != nil {
				return err
			}
			p, err := store.Preferences()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clipboard [true|false]",
		Short: "查看或设置是否复制到剪贴板",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			store, err := a.Prefs()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				p, err := store.Preferences()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "copy_to_clipboard: %t\n", p.CopyToClipboard)
				return nil
			}
			enabled, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[0], err)
			}
			if err := store.SetCopyToClipboard(enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copy_to_clipboard: %t\n", enabled)
			return nil
		},
	})

	return cmd
}
