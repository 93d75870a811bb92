// Package crafter orchestrates prompt generation: it validates caller input,
// routes the selected model to its backend, builds the instruction, issues one
// completion and records successful prompts in history.
package crafter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/promptcraft/internal/application/prompt"
	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/pkg/metrics"
	"github.com/doeshing/promptcraft/internal/ports"
)

const (
	opPrompt   = "prompt"
	opIdeas    = "ideas"
	opSequence = "sequence"
)

// Service exposes the caller-facing operations shared by the CLI and HTTP API.
type Service struct {
	Catalog  ports.ModelCatalog
	Router   ports.ModelRouter
	Backends ports.BackendFactory
	Puller   ports.ModelPuller
	// History is optional; nil disables recording and loading.
	History ports.HistoryRepository
	// HistoryLabel names the store in metrics ("cli" or "api").
	HistoryLabel string
	Logger       ports.Logger
	// Timeout bounds each generation call; zero means no deadline.
	Timeout   time.Duration
	MaxTokens int
}

func (s *Service) validate() error {
	if s.Router == nil || s.Backends == nil || s.Logger == nil {
		return errors.New("crafter.Service dependencies not satisfied")
	}
	return nil
}

// GeneratePrompt turns a short idea into a polished prompt for the target model.
func (s *Service) GeneratePrompt(ctx context.Context, req domain.PromptRequest) (domain.PromptResult, error) {
	if err := s.validate(); err != nil {
		return domain.PromptResult{}, err
	}
	if strings.TrimSpace(req.Input) == "" {
		return domain.PromptResult{}, domain.ErrEmptyInput
	}
	route, err := s.route(req.Model)
	if err != nil {
		return domain.PromptResult{}, err
	}
	maxTokens, err := s.maxTokens(req.MaxTokens)
	if err != nil {
		return domain.PromptResult{}, err
	}

	target := domain.ParseTargetDomain(string(req.Target))
	mode := domain.ParseCreativityMode(string(req.Creativity))
	system, temperature := prompt.Build(target, mode)

	output, err := s.complete(ctx, opPrompt, domain.GenerationRequest{
		Service:      route.Service,
		BaseURL:      route.BaseURL,
		Model:        route.Model,
		SystemPrompt: system,
		UserPrompt:   req.Input,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		UnloadAfter:  req.UnloadAfter,
	})
	if err != nil {
		return domain.PromptResult{}, err
	}

	result := domain.PromptResult{
		Positive:     output,
		Negative:     req.NegativePrompt,
		DebugContext: debugContext(req, output, target, mode, route),
	}

	if req.SaveToHistory && s.History != nil {
		id, err := s.History.Append(domain.HistoryEntry{
			Input:          req.Input,
			Output:         output,
			NegativePrompt: req.NegativePrompt,
			Service:        string(route.Service),
			Model:          route.Model,
			TargetModel:    string(target),
			Creativity:     string(mode),
		})
		if err != nil {
			s.Logger.Warn("prompt not saved to history", map[string]interface{}{"error": err.Error()})
		} else {
			result.HistoryID = id
			s.observeHistory()
		}
	}
	return result, nil
}

// GenerateIdeas brainstorms short scene concepts from keywords.
func (s *Service) GenerateIdeas(ctx context.Context, req domain.IdeasRequest) (domain.IdeasResult, error) {
	if err := s.validate(); err != nil {
		return domain.IdeasResult{}, err
	}
	if strings.TrimSpace(req.Keywords) == "" {
		return domain.IdeasResult{}, domain.ErrEmptyInput
	}
	route, err := s.route(req.Model)
	if err != nil {
		return domain.IdeasResult{}, err
	}

	n := req.NumIdeas
	if n == 0 {
		n = domain.DefaultIdeas
	}
	if n < 1 || n > domain.MaxIdeas {
		return domain.IdeasResult{}, fmt.Errorf("%w: num_ideas must be between 1 and %d", domain.ErrInvalidOption, domain.MaxIdeas)
	}
	style := req.StyleHint
	if style == "" {
		style = domain.DefaultStyleHint
	}
	if !contains(domain.IdeaStyles, style) {
		return domain.IdeasResult{}, fmt.Errorf("%w: unknown style hint %q (expected %s)", domain.ErrInvalidOption, style, strings.Join(domain.IdeaStyles, "|"))
	}

	tpl := prompt.IdeasPrompt(req.Keywords, domain.ParseTargetDomain(string(req.Target)), n, style)
	raw, err := s.complete(ctx, opIdeas, generationFrom(route, tpl, req.UnloadAfter))
	if err != nil {
		return domain.IdeasResult{}, err
	}
	return domain.IdeasResult{All: raw, Ideas: prompt.SplitIdeas(raw, domain.MaxIdeas)}, nil
}

// GenerateSequence plans consecutive video segments whose frames line up.
func (s *Service) GenerateSequence(ctx context.Context, req domain.SequenceRequest) (domain.SequenceResult, error) {
	if err := s.validate(); err != nil {
		return domain.SequenceResult{}, err
	}
	if strings.TrimSpace(req.Concept) == "" {
		return domain.SequenceResult{}, domain.ErrEmptyInput
	}
	route, err := s.route(req.Model)
	if err != nil {
		return domain.SequenceResult{}, err
	}

	n := req.NumSegments
	if n == 0 {
		n = domain.DefaultSegments
	}
	if n < domain.MinSegments || n > domain.MaxSegments {
		return domain.SequenceResult{}, fmt.Errorf("%w: num_segments must be between %d and %d", domain.ErrInvalidOption, domain.MinSegments, domain.MaxSegments)
	}
	duration := orDefault(req.Duration, domain.DefaultDuration)
	if !contains(domain.SegmentDurations, duration) {
		return domain.SequenceResult{}, fmt.Errorf("%w: unknown segment duration %q (expected %s)", domain.ErrInvalidOption, duration, strings.Join(domain.SegmentDurations, "|"))
	}
	transition := orDefault(req.Transition, domain.DefaultTransition)
	if err := domain.ValidateChoice("transition style", transition, domain.TransitionInstructions); err != nil {
		return domain.SequenceResult{}, err
	}
	camera := orDefault(req.Camera, domain.DefaultCamera)
	if err := domain.ValidateChoice("camera style", camera, domain.CameraInstructions); err != nil {
		return domain.SequenceResult{}, err
	}

	mode := domain.ParseCreativityMode(string(req.Creativity))
	tpl := prompt.SequencePrompt(req.Concept, n, duration, transition, camera, mode)
	raw, err := s.complete(ctx, opSequence, generationFrom(route, tpl, req.UnloadAfter))
	if err != nil {
		return domain.SequenceResult{}, err
	}
	return domain.SequenceResult{All: raw, Segments: prompt.SplitSegments(raw, n)}, nil
}

// route validates a selector and resolves it. Blank selectors and the
// no-models placeholder fail before any network call.
func (s *Service) route(selector string) (domain.ModelRoute, error) {
	if !domain.IsSelectableModel(selector) {
		return domain.ModelRoute{}, domain.ErrNoModelSelected
	}
	route := s.Router.Resolve(selector)
	if !domain.IsSelectableModel(route.Model) {
		return domain.ModelRoute{}, domain.ErrNoModelSelected
	}
	return route, nil
}

func (s *Service) maxTokens(requested int) (int, error) {
	if requested == 0 {
		if s.MaxTokens > 0 {
			return s.MaxTokens, nil
		}
		return domain.DefaultMaxTokens, nil
	}
	if requested < domain.MinMaxTokens || requested > domain.MaxMaxTokens {
		return 0, fmt.Errorf("%w: max_tokens must be between %d and %d", domain.ErrInvalidOption, domain.MinMaxTokens, domain.MaxMaxTokens)
	}
	return requested, nil
}

func (s *Service) complete(ctx context.Context, operation string, req domain.GenerationRequest) (string, error) {
	backend, err := s.Backends.ForService(req.Service)
	if err != nil {
		return "", err
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	s.Logger.Info("calling backend", map[string]interface{}{
		"service":   string(req.Service),
		"model":     req.Model,
		"operation": operation,
	})
	started := time.Now()
	output, err := backend.Complete(ctx, req)
	metrics.RecordGeneration(string(req.Service), operation, started, err)
	if err != nil {
		s.Logger.Error("generation failed", err, map[string]interface{}{
			"service":   string(req.Service),
			"operation": operation,
		})
		return "", err
	}
	s.Logger.Debug("generation finished", map[string]interface{}{
		"operation": operation,
		"elapsed":   time.Since(started).String(),
		"chars":     len(output),
	})
	return output, nil
}

func generationFrom(route domain.ModelRoute, tpl prompt.Template, unload bool) domain.GenerationRequest {
	return domain.GenerationRequest{
		Service:      route.Service,
		BaseURL:      route.BaseURL,
		Model:        route.Model,
		SystemPrompt: tpl.System,
		UserPrompt:   tpl.User,
		Temperature:  tpl.Temperature,
		MaxTokens:    tpl.MaxTokens,
		UnloadAfter:  unload,
	}
}

type debugInfo struct {
	Input          string `json:"input"`
	Output         string `json:"output"`
	Negative       string `json:"negative"`
	TargetModel    string `json:"target_model"`
	CreativityMode string `json:"creativity_mode"`
	LLMService     string `json:"llm_service"`
	LLMModel       string `json:"llm_model"`
	RequestID      string `json:"request_id"`
}

func debugContext(req domain.PromptRequest, output string, target domain.TargetDomain, mode domain.CreativityMode, route domain.ModelRoute) string {
	data, err := json.MarshalIndent(debugInfo{
		Input:          req.Input,
		Output:         output,
		Negative:       req.NegativePrompt,
		TargetModel:    string(target),
		CreativityMode: string(mode),
		LLMService:     string(route.Service),
		LLMModel:       route.Model,
		RequestID:      uuid.NewString(),
	}, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
