package domain

import (
	"fmt"
	"sort"
	"strings"
)

// StylePreset wraps a prompt with a fixed prefix and suffix.
type StylePreset struct {
	Prefix string
	Suffix string
}

// StylePresets maps style names to their modifiers.
var StylePresets = map[string]StylePreset{
	"none":           {},
	"cinematic":      {Prefix: "Cinematic shot, ", Suffix: ", dramatic lighting, film grain"},
	"anime":          {Prefix: "Anime style, ", Suffix: ", vibrant colors, cel shading"},
	"photorealistic": {Prefix: "Photorealistic, ", Suffix: ", 8K UHD, highly detailed"},
	"cyberpunk":      {Prefix: "Cyberpunk aesthetic, ", Suffix: ", neon lights, rain, holographic"},
	"fantasy":        {Prefix: "Fantasy art, ", Suffix: ", magical atmosphere, ethereal lighting"},
}

// NegativePresets maps preset names to negative prompt fragments.
var NegativePresets = map[string]string{
	"general":        "blurry, low quality, distorted, deformed, ugly, bad anatomy, watermark",
	"photorealistic": "cartoon, anime, illustration, painting, CGI, 3D render",
	"anime":          "photorealistic, photograph, 3D, hyperrealistic, western style",
	"video":          "static, still image, frozen, no motion, choppy, low fps, artifacts",
	"none":           "",
}

// DefaultNegativePrompt is the negative list recommended for Wan 2.2 video.
const DefaultNegativePrompt = "bright colors, overexposed, static, blurred details, subtitles, style, artwork, painting, picture, still, overall gray, worst quality, low quality, JPEG compression residue, ugly, incomplete, extra fingers, poorly drawn hands, poorly drawn faces, deformed, disfigured, malformed limbs, fused fingers, still picture, cluttered background, three legs, many people in the background, walking backwards"

// Separators maps combiner separator names to their literal text.
var Separators = map[string]string{
	"comma":   ", ",
	"newline": "\n",
	"space":   " ",
	"period":  ". ",
}

// IdeaStyles lists the accepted idea style hints.
var IdeaStyles = []string{"any", "cinematic", "artistic", "photorealistic", "anime", "abstract"}

// TransitionInstructions maps sequence transition styles to LLM guidance.
var TransitionInstructions = map[string]string{
	"smooth_continuous": "Flow seamlessly between segments. Ending of one = beginning of next.",
	"scene_progression": "Progress through different but related scenes.",
	"time_lapse":        "Show passage of time (morning→night, seasons, etc.).",
	"emotional_arc":     "Build emotional narrative across segments.",
	"action_sequence":   "Escalating action with dynamic energy.",
}

// CameraInstructions maps sequence camera styles to LLM guidance.
var CameraInstructions = map[string]string{
	"static":   "Static camera.",
	"slow_pan": "Slow pans and tilts.",
	"tracking": "Tracking shots following subject.",
	"dynamic":  "Dynamic, energetic movements.",
	"mixed":    "Vary movements per segment.",
}

// SegmentDurations lists the accepted per-segment durations.
var SegmentDurations = []string{"3sec", "5sec", "8sec", "10sec"}

// Defaults for sequence options.
const (
	DefaultTransition = "smooth_continuous"
	DefaultCamera     = "mixed"
	DefaultDuration   = "5sec"
	DefaultStyleHint  = "any"
)

// ApplyStyle wraps prompt with the named style. Blank prompts are returned unchanged
// and unknown styles behave like "none".
func ApplyStyle(prompt, style string) string {
	if strings.TrimSpace(prompt) == "" {
		return prompt
	}
	preset := StylePresets[style]
	return strings.TrimSpace(preset.Prefix + prompt + preset.Suffix)
}

// BuildNegative joins the preset fragment with any additional text.
func BuildNegative(preset, additional string) string {
	var parts []string
	if base := NegativePresets[preset]; base != "" {
		parts = append(parts, base)
	}
	if extra := strings.TrimSpace(additional); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, ", ")
}

// CombineTexts joins the non-blank texts with the named separator (comma by default).
func CombineTexts(separator string, texts ...string) string {
	sep, ok := Separators[separator]
	if !ok {
		sep = Separators["comma"]
	}
	var kept []string
	for _, text := range texts {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, sep)
}

// HumanDuration turns "5sec" into "5 seconds".
func HumanDuration(duration string) string {
	return strings.Replace(duration, "sec", " seconds", 1)
}

// ValidateChoice reports an error when value is not one of the keys of choices.
func ValidateChoice[V any](kind, value string, choices map[string]V) error {
	if _, ok := choices[value]; ok {
		return nil
	}
	return fmt.Errorf("%w: unknown %s %q (expected %s)", ErrInvalidOption, kind, value, strings.Join(SortedKeys(choices), "|"))
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
