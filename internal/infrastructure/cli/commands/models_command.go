package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptcraft/internal/app"
	"github.com/doeshing/promptcraft/internal/infrastructure/cli/helpers"
)

// NewModelsCommand creates the models command with all subcommands
func NewModelsCommand(container *app.Container) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List or download local LLM models",
	}

	modelsCmd.AddCommand(
		newModelsListCommand(container),
		newModelsPullCommand(container),
	)

	return modelsCmd
}

// newModelsListCommand creates the 'models list' subcommand
func newModelsListCommand(container *app.Container) *cobra.Command {
	var (
		refresh    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List models offered by Ollama and LM Studio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Crafter == nil {
				return fmt.Errorf(ErrCrafterUnavailable)
			}
			models := container.Crafter.ListModels(cmd.Context(), refresh)
			if jsonOutput {
				return helpers.WriteJSON(cmd.OutOrStdout(), models)
			}
			helpers.RenderModels(cmd.OutOrStdout(), models)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Ignore the cached list and query the backends again")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the list as JSON")
	return cmd
}

// newModelsPullCommand creates the 'models pull' subcommand
func newModelsPullCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "pull <name>",
		Short:   "Download a model through Ollama",
		Args:    cobra.ExactArgs(1),
		Example: "  promptcraft models pull llama3.2:3b",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Crafter == nil {
				return fmt.Errorf(ErrCrafterUnavailable)
			}
			reporter := helpers.NewPullReporter(cmd.OutOrStdout())
			err := container.Crafter.PullModel(cmd.Context(), args[0], reporter.Report)
			reporter.Close()
			if err != nil {
				return fmt.Errorf("pull %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s\n", args[0])
			return nil
		},
	}
}
