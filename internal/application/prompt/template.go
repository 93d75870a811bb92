// Package prompt builds the instructions sent to the LLM and splits its free-form
// replies back into numbered slots.
package prompt

import (
	"fmt"
	"strings"

	"github.com/doeshing/promptcraft/internal/domain"
)

var baseInstructions = map[domain.TargetDomain]string{
	domain.TargetWan:  "You are an expert prompt engineer for the Wan 2.2 video generation model. Your task is to craft highly detailed, cinematic video prompts that include specific camera movements, lighting, composition, color grading, and emotional elements. Always output only the final prompt without any additional text, explanations, or formatting.",
	domain.TargetFlux: "You are an expert prompt engineer for the Flux image generation model. Your task is to craft a single, concise, and highly descriptive paragraph for a text-to-image prompt. Focus on visual details, style, and composition. Do not use lists or labels. Always output only the final prompt paragraph without any additional text or explanations.",
	domain.TargetQwen: "You are an expert prompt engineer for the Qwen-VL text-to-image model. Your task is to create a detailed prompt focusing on photorealistic or artistic styles. Describe the subject, scene, lighting, and composition clearly. The prompt should be a single block of text. Always output only the final prompt without any additional text or explanations.",
}

type creativityConfig struct {
	temperature float64
	modifier    string
}

var creativityConfigs = map[domain.CreativityMode]creativityConfig{
	domain.CreativityPrecise: {
		temperature: 0.3,
		modifier:    "Use precise, technical language with minimal creative interpretation. Focus on exact specifications provided by the user.",
	},
	domain.CreativityBalanced: {
		temperature: 0.5,
		modifier:    "Balance precise descriptions with moderate creative enhancements. Maintain the core concept while adding complementary visual details.",
	},
	domain.CreativityCreative: {
		temperature: 0.7,
		modifier:    "Apply creative interpretation to enhance cinematic quality. Add appropriate camera movements, lighting, composition, and emotional elements that complement the user's input while maintaining the core concept.",
	},
}

const (
	ideasSystemPrompt    = "You are a creative brainstorming assistant. Generate short, distinct scene concepts from keywords. Keep each idea brief (1-2 sentences max)."
	sequenceSystemPrompt = "Expert cinematographer for Wan 2.2 video generation. Break concepts into sequential segments where LAST FRAME of each matches FIRST FRAME of next. Output only numbered prompts."
)

// Template is a fully built request minus the model and routing.
type Template struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Build returns the system instruction and sampling temperature for a target and
// mode. Unknown targets use the flux template and unknown modes use balanced.
func Build(target domain.TargetDomain, mode domain.CreativityMode) (string, float64) {
	base, ok := baseInstructions[target]
	if !ok {
		base = baseInstructions[domain.TargetFlux]
	}
	cfg := creativityFor(mode)
	return base + " " + cfg.modifier, cfg.temperature
}

// Temperature returns the sampling temperature for mode.
func Temperature(mode domain.CreativityMode) float64 {
	return creativityFor(mode).temperature
}

func creativityFor(mode domain.CreativityMode) creativityConfig {
	if cfg, ok := creativityConfigs[mode]; ok {
		return cfg
	}
	return creativityConfigs[domain.CreativityBalanced]
}

// IdeasPrompt asks for n short scene ideas built from keywords.
func IdeasPrompt(keywords string, target domain.TargetDomain, n int, styleHint string) Template {
	style := ""
	if styleHint != "" && styleHint != domain.DefaultStyleHint {
		style = fmt.Sprintf(" Each idea should have a %s feel.", styleHint)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Keywords: \"%s\"\n\n", keywords)
	fmt.Fprintf(&b, "Generate %d SHORT %s scene ideas.%s\n\n", n, target.Medium(), style)
	b.WriteString("Rules:\n")
	b.WriteString("- 1-2 sentences MAX per idea\n")
	b.WriteString("- Make each distinctly different\n")
	b.WriteString("- Number them 1., 2., 3.\n\n")
	b.WriteString("Example:\n")
	b.WriteString("1. A lone figure on a rainy neon street.\n")
	b.WriteString("2. Abstract colors morphing into a face.\n")
	b.WriteString("3. Timelapse of flowers blooming.")

	return Template{
		System:      ideasSystemPrompt,
		User:        b.String(),
		Temperature: domain.IdeasTemperature,
		MaxTokens:   domain.IdeasMaxTokens,
	}
}

// SequencePrompt asks for n segments whose last frame matches the next first frame.
// transition and camera must be keys of the domain instruction tables.
func SequencePrompt(concept string, n int, duration, transition, camera string, mode domain.CreativityMode) Template {
	var b strings.Builder
	fmt.Fprintf(&b, "Concept: \"%s\"\n", concept)
	fmt.Fprintf(&b, "Segments: %d x %s\n", n, domain.HumanDuration(duration))
	fmt.Fprintf(&b, "Transition: %s\n", domain.TransitionInstructions[transition])
	fmt.Fprintf(&b, "Camera: %s\n\n", domain.CameraInstructions[camera])
	b.WriteString("For each segment include: subject, action, camera, lighting, key visuals.\n")
	b.WriteString("Format: SEGMENT 1: [prompt]")

	return Template{
		System:      sequenceSystemPrompt,
		User:        b.String(),
		Temperature: Temperature(mode),
		MaxTokens:   domain.SequenceMaxTokens,
	}
}
