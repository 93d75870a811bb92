package domain

import "strings"

// TargetDomain is the downstream generation model family a prompt is written for.
type TargetDomain string

const (
	TargetWan  TargetDomain = "wan2.2"
	TargetFlux TargetDomain = "flux"
	TargetQwen TargetDomain = "qwen"
)

// TargetDomains lists the supported targets.
var TargetDomains = []TargetDomain{TargetWan, TargetFlux, TargetQwen}

// ParseTargetDomain normalizes a target name. Unknown names fall back to flux.
func ParseTargetDomain(value string) TargetDomain {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "wan2.2", "wan", "video":
		return TargetWan
	case "qwen", "qwen-image":
		return TargetQwen
	default:
		return TargetFlux
	}
}

// Medium describes the output kind of a target ("video" or "image").
func (t TargetDomain) Medium() string {
	if t == TargetWan {
		return "video"
	}
	return "image"
}

// CreativityMode controls how far the LLM may stray from the literal input.
type CreativityMode string

const (
	CreativityPrecise  CreativityMode = "precise"
	CreativityBalanced CreativityMode = "balanced"
	CreativityCreative CreativityMode = "creative"
)

// CreativityModes lists the supported modes in increasing temperature.
var CreativityModes = []CreativityMode{CreativityPrecise, CreativityBalanced, CreativityCreative}

// ParseCreativityMode normalizes a mode name. Unknown names fall back to balanced.
func ParseCreativityMode(value string) CreativityMode {
	switch CreativityMode(strings.ToLower(strings.TrimSpace(value))) {
	case CreativityPrecise:
		return CreativityPrecise
	case CreativityCreative:
		return CreativityCreative
	default:
		return CreativityBalanced
	}
}

// GenerationRequest is one completion call against a resolved backend.
type GenerationRequest struct {
	Service      Service
	BaseURL      string
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	UnloadAfter  bool
}

// PromptRequest drives generate-prompt.
type PromptRequest struct {
	Model          string         `json:"model"`
	Target         TargetDomain   `json:"target_model"`
	Creativity     CreativityMode `json:"creativity_mode"`
	Input          string         `json:"input"`
	NegativePrompt string         `json:"negative_prompt"`
	MaxTokens      int            `json:"max_tokens"`
	UnloadAfter    bool           `json:"unload_model"`
	SaveToHistory  bool           `json:"save_to_history"`
}

// PromptResult is the outcome of generate-prompt.
type PromptResult struct {
	Positive     string `json:"positive_prompt"`
	Negative     string `json:"negative_prompt"`
	DebugContext string `json:"full_context"`
	HistoryID    int64  `json:"history_id,omitempty"`
}

// IdeasRequest drives generate-ideas.
type IdeasRequest struct {
	Model       string       `json:"model"`
	Keywords    string       `json:"keywords"`
	Target      TargetDomain `json:"target_model"`
	NumIdeas    int          `json:"num_ideas"`
	StyleHint   string       `json:"style_hint"`
	UnloadAfter bool         `json:"unload_model"`
}

// IdeasResult is the outcome of generate-ideas.
type IdeasResult struct {
	All   string   `json:"all_ideas"`
	Ideas []string `json:"ideas"`
}

// SequenceRequest drives generate-sequence.
type SequenceRequest struct {
	Model       string         `json:"model"`
	Concept     string         `json:"concept"`
	NumSegments int            `json:"num_segments"`
	Duration    string         `json:"segment_duration"`
	Transition  string         `json:"transition_style"`
	Creativity  CreativityMode `json:"creativity_mode"`
	Camera      string         `json:"camera_style"`
	UnloadAfter bool           `json:"unload_model"`
}

// SequenceResult is the outcome of generate-sequence.
type SequenceResult struct {
	All      string   `json:"all_segments"`
	Segments []string `json:"segments"`
}
