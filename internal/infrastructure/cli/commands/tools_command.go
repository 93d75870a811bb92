package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptcraft/internal/app"
	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/infrastructure/cli/helpers"
)

// NewStyleCommand creates the style command
func NewStyleCommand(container *app.Container) *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:     "style [prompt]",
		Short:   "Wrap a prompt with a style preset",
		Example: `  promptcraft style "a fox in the snow" --preset cinematic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := helpers.ReadInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			styled, err := container.Crafter.Style(text, preset)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styled)
			return nil
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "none", "Style preset: "+strings.Join(domain.SortedKeys(domain.StylePresets), "|"))
	return cmd
}

// NewNegativeCommand creates the negative command
func NewNegativeCommand(container *app.Container) *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:     "negative [additional terms]",
		Short:   "Build a negative prompt from a preset",
		Example: `  promptcraft negative --preset video "text, logo"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			negative, err := container.Crafter.Negative(preset, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), negative)
			return nil
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "general", "Negative preset: "+strings.Join(domain.SortedKeys(domain.NegativePresets), "|"))
	return cmd
}

// NewCombineCommand creates the combine command
func NewCombineCommand(container *app.Container) *cobra.Command {
	var separator string

	cmd := &cobra.Command{
		Use:     "combine <text>...",
		Short:   "Join prompt fragments, skipping blank ones",
		Args:    cobra.MinimumNArgs(1),
		Example: `  promptcraft combine "a fox" "snowy forest" "golden hour" --separator period`,
		RunE: func(cmd *cobra.Command, args []string) error {
			combined, err := container.Crafter.Combine(separator, args...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), combined)
			return nil
		},
	}

	cmd.Flags().StringVarP(&separator, "separator", "s", "comma", "Separator: "+strings.Join(domain.SortedKeys(domain.Separators), "|"))
	return cmd
}
