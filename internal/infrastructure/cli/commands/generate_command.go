package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptcraft/internal/app"
	"github.com/doeshing/promptcraft/internal/application/crafter"
	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/infrastructure/cli/helpers"
)

// generationFlags are shared by generate, ideas and sequence.
type generationFlags struct {
	model      string
	creativity string
	unload     bool
	jsonOutput bool
}

func (f *generationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.model, "model", "m", "", `Model selector, e.g. "[Ollama] llama3" (default: generation.default_model, then first discovered)`)
	cmd.Flags().BoolVar(&f.unload, "unload", false, "Unload the model from memory after the call")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print the result as JSON")
}

func (f *generationFlags) registerCreativity(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.creativity, "creativity", "c", "", "precise|balanced|creative (default: generation.default_creativity)")
}

// resolve fills unset flags from config and returns the crafter to use.
func (f *generationFlags) resolve(cmd *cobra.Command, container *app.Container) (*crafter.Service, error) {
	if container.Crafter == nil {
		return nil, fmt.Errorf(ErrCrafterUnavailable)
	}
	gen := container.Config.Generation
	f.model = helpers.ResolveModel(cmd.Context(), container.Crafter.Catalog, f.model, gen.DefaultModel)
	if f.creativity == "" {
		f.creativity = gen.DefaultCreativity
	}
	if !cmd.Flags().Changed("unload") {
		f.unload = gen.UnloadAfter
	}
	return container.Crafter, nil
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand(container *app.Container) *cobra.Command {
	var (
		flags     generationFlags
		target    string
		negative  string
		maxTokens int
		noHistory bool
		debug     bool
	)

	cmd := &cobra.Command{
		Use:   "generate [idea]",
		Short: "Turn a short idea into a detailed prompt",
		Long: `Expand a short idea into a detailed prompt for Wan 2.2 video, Flux or Qwen-Image.

The idea is read from the arguments, or from stdin when none are given.`,
		Example: `  promptcraft generate "a fox in the snow" --target flux
  echo "city at night" | promptcraft generate --target wan2.2 -c creative`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := helpers.ReadInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			svc, err := flags.resolve(cmd, container)
			if err != nil {
				return err
			}
			if target == "" {
				target = container.Config.Generation.DefaultTarget
			}

			req := domain.PromptRequest{
				Model:          flags.model,
				Target:         domain.TargetDomain(target),
				Creativity:     domain.CreativityMode(flags.creativity),
				Input:          input,
				NegativePrompt: negative,
				MaxTokens:      maxTokens,
				UnloadAfter:    flags.unload,
				SaveToHistory:  !noHistory,
			}
			res, err := helpers.RunWithSpinner(cmd.ErrOrStderr(), "Generating prompt...", func() (domain.PromptResult, error) {
				return svc.GeneratePrompt(cmd.Context(), req)
			})
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return helpers.WriteJSON(cmd.OutOrStdout(), res)
			}
			helpers.RenderPromptResult(cmd.OutOrStdout(), res, debug)
			return nil
		},
	}

	flags.register(cmd)
	flags.registerCreativity(cmd)
	cmd.Flags().StringVarP(&target, "target", "t", "", "wan2.2|flux|qwen (default: generation.default_target)")
	cmd.Flags().StringVarP(&negative, "negative", "n", "", "Negative prompt passed through with the result")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, fmt.Sprintf("Completion budget (%d-%d, default: generation.max_tokens)", domain.MinMaxTokens, domain.MaxMaxTokens))
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this prompt in history")
	cmd.Flags().BoolVar(&debug, "debug", false, "Also print the debug context")
	return cmd
}

// NewIdeasCommand creates the ideas command
func NewIdeasCommand(container *app.Container) *cobra.Command {
	var (
		flags  generationFlags
		target string
		num    int
		style  string
	)

	cmd := &cobra.Command{
		Use:     "ideas [keywords]",
		Short:   "Brainstorm short scene ideas from keywords",
		Example: `  promptcraft ideas "lighthouse, storm" --num 4 --style cinematic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keywords, err := helpers.ReadInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			svc, err := flags.resolve(cmd, container)
			if err != nil {
				return err
			}
			if target == "" {
				target = container.Config.Generation.DefaultTarget
			}

			req := domain.IdeasRequest{
				Model:       flags.model,
				Keywords:    keywords,
				Target:      domain.TargetDomain(target),
				NumIdeas:    num,
				StyleHint:   style,
				UnloadAfter: flags.unload,
			}
			res, err := helpers.RunWithSpinner(cmd.ErrOrStderr(), "Brainstorming...", func() (domain.IdeasResult, error) {
				return svc.GenerateIdeas(cmd.Context(), req)
			})
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return helpers.WriteJSON(cmd.OutOrStdout(), res)
			}
			helpers.RenderNumbered(cmd.OutOrStdout(), "Ideas", res.All, res.Ideas)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&target, "target", "t", "", "wan2.2 for video ideas, flux|qwen for image ideas")
	cmd.Flags().IntVar(&num, "num", domain.DefaultIdeas, fmt.Sprintf("Number of ideas (1-%d)", domain.MaxIdeas))
	cmd.Flags().StringVar(&style, "style", domain.DefaultStyleHint, "Style hint: any|cinematic|artistic|photorealistic|anime|abstract")
	return cmd
}

// NewSequenceCommand creates the sequence command
func NewSequenceCommand(container *app.Container) *cobra.Command {
	var (
		flags      generationFlags
		segments   int
		duration   string
		transition string
		camera     string
	)

	cmd := &cobra.Command{
		Use:   "sequence [concept]",
		Short: "Plan a multi-segment video whose frames line up",
		Long: `Break a concept into consecutive Wan 2.2 segments. The last frame of each
segment is written to match the first frame of the next.`,
		Example: `  promptcraft sequence "a paper boat drifting to sea" --segments 4 --transition time_lapse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			concept, err := helpers.ReadInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			svc, err := flags.resolve(cmd, container)
			if err != nil {
				return err
			}

			req := domain.SequenceRequest{
				Model:       flags.model,
				Concept:     concept,
				NumSegments: segments,
				Duration:    duration,
				Transition:  transition,
				Creativity:  domain.CreativityMode(flags.creativity),
				Camera:      camera,
				UnloadAfter: flags.unload,
			}
			res, err := helpers.RunWithSpinner(cmd.ErrOrStderr(), "Planning sequence...", func() (domain.SequenceResult, error) {
				return svc.GenerateSequence(cmd.Context(), req)
			})
			if err != nil {
				return err
			}
			if flags.jsonOutput {
				return helpers.WriteJSON(cmd.OutOrStdout(), res)
			}
			helpers.RenderNumbered(cmd.OutOrStdout(), "Segments", res.All, res.Segments)
			return nil
		},
	}

	flags.register(cmd)
	flags.registerCreativity(cmd)
	cmd.Flags().IntVar(&segments, "segments", domain.DefaultSegments, fmt.Sprintf("Number of segments (%d-%d)", domain.MinSegments, domain.MaxSegments))
	cmd.Flags().StringVar(&duration, "duration", domain.DefaultDuration, "Segment length: 3sec|5sec|8sec|10sec")
	cmd.Flags().StringVar(&transition, "transition", domain.DefaultTransition, "smooth_continuous|scene_progression|time_lapse|emotional_arc|action_sequence")
	cmd.Flags().StringVar(&camera, "camera", domain.DefaultCamera, "static|slow_pan|tracking|dynamic|mixed")
	return cmd
}
