package commands

import (
	"github.com/spf13/cobra"

	"github.com/and161185/studyflow/internal/app"
)

const toggleArg = "toggle"

func addTheme(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the colour theme.",
		ValidArgs: []string{string(app.ThemeLight), string(app.ThemeDark), toggleArg},
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return err
			}
			return cobra.OnlyValidArgs(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// preferences are local; no connection needed
			sh := app.NewShell(nil, nil, e.bus, e.cache, e.log)
			sh.LoadPreferences()
			cur := sh.State().Theme

			if len(args) == 1 {
				want := app.Theme(args[0])
				if args[0] == toggleArg || want != cur {
					cur = sh.ToggleTheme()
				}
				e.out.setTheme(cur)
			}
			e.out.line("Theme: %s", cur)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
