package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptcraft/internal/app"
	"github.com/doeshing/promptcraft/internal/infrastructure/cli/commands"
	"github.com/doeshing/promptcraft/internal/infrastructure/cli/helpers"
	"github.com/doeshing/promptcraft/internal/pkg/logger"
)

// Options holds CLI-level configuration.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCmd wires the cobra root command. The container is filled in by the
// persistent pre-run hook so that flags are parsed first.
func NewRootCmd(ctx context.Context, opts Options) *cobra.Command {
	container := app.NewContainer()

	root := &cobra.Command{
		Use:   "promptcraft",
		Short: "Prompt authoring for text-to-video and text-to-image models",
		Long: "promptcraft expands short ideas into detailed prompts for Wan 2.2, Flux and Qwen-Image\n" +
			"using a local Ollama or LM Studio server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !logger.ShouldUseColors() {
				helpers.DisableStyling()
			}
			if !needsContainer(cmd) {
				return nil
			}
			return container.Init(cmd.Context(), app.Options{
				ConfigPath:     opts.ConfigPath,
				Verbose:        opts.Verbose,
				SkipValidation: cmd.Annotations[commands.AnnotationLenientConfig] != "",
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			container.Close()
		},
	}
	root.SetContext(ctx)

	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Config file (default ~/.promptcraft/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "Enable debug logging")

	root.AddCommand(
		commands.NewGenerateCommand(container),
		commands.NewIdeasCommand(container),
		commands.NewSequenceCommand(container),
		commands.NewModelsCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewStyleCommand(container),
		commands.NewNegativeCommand(container),
		commands.NewCombineCommand(container),
		commands.NewConfigCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewServeCommand(container),
		commands.NewVersionCommand(),
	)
	return root
}

// needsContainer reports whether cmd touches config or backends. Cobra's
// generated help and completion commands never do.
func needsContainer(cmd *cobra.Command) bool {
	if cmd.Annotations[commands.AnnotationSkipContainer] != "" {
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}
