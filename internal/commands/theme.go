package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/oktotech/okto-go/internal/appctx"
	"github.com/oktotech/okto-go/internal/okto"
	"github.com/oktotech/okto-go/internal/output"
	"github.com/oktotech/okto-go/internal/tui"
)

// NewThemeCmd creates the theme command group.
func NewThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or customise the widget theme",
		Long: `Show or customise the colors injected into the onboarding page and wallet widget.

Colors are 0xAARRGGBB values. Changes are saved in the credential store.`,
		RunE: runThemeShow,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the current theme",
			RunE:  runThemeShow,
		},
		newThemeSetCmd(),
		newThemeResetCmd(),
	)

	return cmd
}

func runThemeShow(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}
	return showTheme(app, "Current theme")
}

func newThemeSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set key=value...",
		Short:   "Change theme colors",
		Example: "  okto theme set accent1Color=0xFF00C2A8 backgroundColor=0xFF101010",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			assignments, err := parseAssignments(args)
			if err != nil {
				return err
			}

			var patch okto.Theme
			for key, value := range assignments {
				if tui.Color(value) == (lipgloss.NoColor{}) {
					return output.ErrUsageHint(fmt.Sprintf("Invalid color %q for %s", value, key), "Use 0xAARRGGBB")
				}
				if err := patch.Set(key, value); err != nil {
					return output.ErrUsage(err.Error())
				}
			}

			theme := app.Okto.SetTheme(patch)
			if err := okto.SaveTheme(cmd.Context(), app.KV, theme); err != nil {
				return err
			}
			return showTheme(app, fmt.Sprintf("Updated %d theme colors", len(assignments)))
		},
	}
}

func newThemeResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if err := app.KV.Delete(cmd.Context(), okto.ThemeKey); err != nil {
				return err
			}
			app.Okto.SetTheme(okto.DefaultTheme())
			return showTheme(app, "Theme reset to defaults")
		},
	}
}

func showTheme(app *appctx.App, summary string) error {
	return app.OK(app.Okto.Theme(),
		output.WithSummary(summary),
		output.WithBreadcrumbs(output.Breadcrumb{
			Action:      "set",
			Cmd:         "okto theme set <field>=0xAARRGGBB",
			Description: "Change a color",
		}),
	)
}
