package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
)

const (
	lmStudioNativeModelsPath = "/api/v0/models"
	lmStudioNativeChatPath   = "/api/v0/chat/completions"
	lmStudioUnloadPath       = "/api/v1/models/unload"
	openAIChatPath           = "/v1/chat/completions"
)

// LMStudioClient talks to LM Studio through either its native REST API or the
// OpenAI-compatible surface. In auto mode the native API is probed until it
// answers definitively (2xx or 404); that answer sticks for the life of the client.
type LMStudioClient struct {
	baseURL   string
	mode      string
	transport httpTransport
	logger    ports.Logger

	probeMu  sync.Mutex
	resolved bool
	native   bool
}

// NewLMStudioClient builds a client for the configured mode.
func NewLMStudioClient(settings domain.LMStudioSettings, transport httpTransport, logger ports.Logger) *LMStudioClient {
	mode := strings.ToLower(strings.TrimSpace(settings.Mode))
	if mode == "" {
		mode = domain.LMStudioModeAuto
	}
	return &LMStudioClient{
		baseURL:   strings.TrimRight(settings.BaseURL, "/"),
		mode:      mode,
		transport: transport,
		logger:    logger,
	}
}

func (c *LMStudioClient) Service() domain.Service {
	return domain.ServiceLMStudio
}

// BaseURL returns the configured endpoint.
func (c *LMStudioClient) BaseURL() string {
	return c.baseURL
}

// Native reports whether the native REST API is in use, probing it if needed.
func (c *LMStudioClient) Native(ctx context.Context) bool {
	switch c.mode {
	case domain.LMStudioModeNative:
		return true
	case domain.LMStudioModeOpenAI:
		return false
	}
	c.probeMu.Lock()
	defer c.probeMu.Unlock()
	if c.resolved {
		return c.native
	}

	_, err := getJSON(ctx, c.transport.discovery, domain.ServiceLMStudio, c.baseURL+lmStudioNativeModelsPath)
	var protocol *domain.LLMProtocolError
	switch {
	case err == nil:
		c.native, c.resolved = true, true
	case errors.As(err, &protocol) && protocol.StatusCode == http.StatusNotFound:
		c.native, c.resolved = false, true
	default:
		// Unreachable, cancelled or erroring: use the OpenAI surface for this
		// call only and probe again next time.
		c.logger.Debug("lmstudio api probe inconclusive", map[string]interface{}{
			"base_url": c.baseURL,
			"error":    err.Error(),
		})
		return false
	}
	c.logger.Debug("lmstudio api probed", map[string]interface{}{
		"base_url": c.baseURL,
		"native":   c.native,
	})
	return c.native
}

// ListModels returns the downloaded llm/vlm models from the native API. When the
// native API is unavailable or reports nothing, it lists /v1/models instead.
func (c *LMStudioClient) ListModels(ctx context.Context) ([]string, error) {
	if c.Native(ctx) {
		models, err := c.nativeModels(ctx, false)
		if err == nil && len(models) > 0 {
			return models, nil
		}
		c.logger.Debug("lmstudio native listing empty, trying openai surface", map[string]interface{}{
			"error": errString(err),
		})
	}

	url := c.baseURL + openAIModelsPath
	body, err := getJSON(ctx, c.transport.discovery, domain.ServiceLMStudio, url)
	if err != nil {
		return nil, asDiscoveryError(domain.ServiceLMStudio, url, err)
	}
	return namesAt(body, "data.#.id"), nil
}

func (c *LMStudioClient) nativeModels(ctx context.Context, loadedOnly bool) ([]string, error) {
	url := c.baseURL + lmStudioNativeModelsPath
	body, err := getJSON(ctx, c.transport.discovery, domain.ServiceLMStudio, url)
	if err != nil {
		return nil, err
	}
	return chatModels(body, loadedOnly), nil
}

// chatModels keeps text and vision models, optionally only those currently loaded.
func chatModels(body []byte, loadedOnly bool) []string {
	var names []string
	gjson.GetBytes(body, "data").ForEach(func(_, model gjson.Result) bool {
		kind := model.Get("type").String()
		if kind != "llm" && kind != "vlm" {
			return true
		}
		if loadedOnly && model.Get("state").String() != "loaded" {
			return true
		}
		if id := strings.TrimSpace(model.Get("id").String()); id != "" {
			names = append(names, id)
		}
		return true
	})
	return names
}

// Complete posts a chat completion. An empty model selects the first loaded one.
func (c *LMStudioClient) Complete(ctx context.Context, req domain.GenerationRequest) (string, error) {
	native := c.Native(ctx)
	if native && strings.TrimSpace(req.Model) == "" {
		if loaded, err := c.nativeModels(ctx, true); err == nil && len(loaded) > 0 {
			req.Model = loaded[0]
		}
	}

	base := c.baseURL
	if req.BaseURL != "" {
		base = strings.TrimRight(req.BaseURL, "/")
	}
	path := openAIChatPath
	if native {
		path = lmStudioNativeChatPath
	}
	url := base + path

	body, err := postJSON(ctx, c.transport.generation, domain.ServiceLMStudio, url, newChatCompletionRequest(req))
	if err != nil {
		return "", err
	}
	content, err := extractContent(domain.ServiceLMStudio, url, body, openAIContentPath)
	if err != nil {
		return "", err
	}

	if req.UnloadAfter {
		c.unload(ctx, base, req.Model)
	}
	return content, nil
}

type unloadRequest struct {
	InstanceID string `json:"instance_id"`
}

// unload asks LM Studio to evict a model. Failure only warns; the completion
// has already succeeded.
func (c *LMStudioClient) unload(ctx context.Context, base, model string) {
	if model == "" {
		return
	}
	url := base + lmStudioUnloadPath
	if _, err := postJSON(ctx, c.transport.discovery, domain.ServiceLMStudio, url, unloadRequest{InstanceID: model}); err != nil {
		c.logger.Warn("failed to unload lmstudio model", map[string]interface{}{
			"model": model,
			"error": err.Error(),
		})
		return
	}
	c.logger.Debug("lmstudio model unloaded", map[string]interface{}{"model": model})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

var _ ports.Backend = (*LMStudioClient)(nil)
