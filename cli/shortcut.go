package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mememeow/prefs"
)

func newShortcutCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortcut",
		Short: "查看或设置切换窗口快捷键",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "显示当前快捷键",
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
			b, err := store.ToggleAppBinding()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", b.Action, b.Hotkey())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set <binding>",
		Short:   "设置快捷键，例如 ctrl+alt+v",
		Example: "  mememeow shortcut set ctrl+shift+m",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			binding, err := parseBinding(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			store, err := a.Prefs()
			if err != nil {
				return err
			}
			if err := store.SetShortcuts(prefs.Shortcuts{ToggleApp: binding}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", binding.Action, binding.Hotkey())
			return nil
		},
	})

	return cmd
}

// parseBinding 解析 "mod+mod+key" 形式的快捷键
func parseBinding(s string) (prefs.Binding, error) {
	parts := strings.Split(s, "+")
	if len(parts) < 2 {
		return prefs.Binding{}, fmt.Errorf("invalid binding %q: need modifier+key", s)
	}
	mods := make([]string, 0, len(parts)-1)
	for _, m := range parts[:len(parts)-1] {
		mods = append(mods, strings.ToLower(strings.TrimSpace(m)))
	}
	return prefs.Binding{
		Modifiers: mods,
		Key:       strings.TrimSpace(parts[len(parts)-1]),
		Action:    prefs.DefaultToggleAppBinding().Action,
	}, nil
}
