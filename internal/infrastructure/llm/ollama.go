package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
)

const (
	ollamaTagsPath   = "/api/tags"
	ollamaChatPath   = "/api/chat"
	ollamaPullPath   = "/api/pull"
	openAIModelsPath = "/v1/models"
)

// OllamaClient speaks the Ollama native chat API.
type OllamaClient struct {
	baseURL   string
	keepAlive string
	transport httpTransport
}

// NewOllamaClient builds a client for baseURL (e.g. http://localhost:11434).
func NewOllamaClient(settings domain.OllamaSettings, transport httpTransport) *OllamaClient {
	keepAlive := settings.KeepAlive
	if keepAlive == "" {
		keepAlive = domain.DefaultOllamaKeepAlive
	}
	return &OllamaClient{
		baseURL:   strings.TrimRight(settings.BaseURL, "/"),
		keepAlive: keepAlive,
		transport: transport,
	}
}

func (o *OllamaClient) Service() domain.Service {
	return domain.ServiceOllama
}

// BaseURL returns the configured endpoint.
func (o *OllamaClient) BaseURL() string {
	return o.baseURL
}

// ListModels reads /api/tags, falling back to the OpenAI-compatible /v1/models.
func (o *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	tagsURL := o.baseURL + ollamaTagsPath
	body, err := getJSON(ctx, o.transport.discovery, domain.ServiceOllama, tagsURL)
	if err == nil {
		return namesAt(body, "models.#.name"), nil
	}

	modelsURL := o.baseURL + openAIModelsPath
	fallback, fallbackErr := getJSON(ctx, o.transport.discovery, domain.ServiceOllama, modelsURL)
	if fallbackErr != nil {
		return nil, errors.Join(asDiscoveryError(domain.ServiceOllama, tagsURL, err), asDiscoveryError(domain.ServiceOllama, modelsURL, fallbackErr))
	}
	return namesAt(fallback, "data.#.id"), nil
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
	// KeepAlive is 0 to evict immediately or a duration string such as "5m".
	KeepAlive interface{} `json:"keep_alive"`
}

// Complete posts a non-streaming chat request.
func (o *OllamaClient) Complete(ctx context.Context, req domain.GenerationRequest) (string, error) {
	payload := ollamaChatRequest{
		Model:    req.Model,
		Messages: toChatMessages(req),
		Stream:   false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
		KeepAlive: o.keepAliveFor(req.UnloadAfter),
	}

	url := o.endpoint(req.BaseURL) + ollamaChatPath
	body, err := postJSON(ctx, o.transport.generation, domain.ServiceOllama, url, payload)
	if err != nil {
		return "", err
	}
	return extractContent(domain.ServiceOllama, url, body, ollamaContentPath)
}

func (o *OllamaClient) keepAliveFor(unload bool) interface{} {
	if unload {
		return 0
	}
	return o.keepAlive
}

func (o *OllamaClient) endpoint(override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	return o.baseURL
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// Pull downloads a model, invoking progress once per streamed line.
func (o *OllamaClient) Pull(ctx context.Context, name string, progress func(domain.PullProgress)) error {
	url := o.baseURL + ollamaPullPath
	raw, err := json.Marshal(pullRequest{Name: name, Stream: true})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)

	resp, err := o.transport.generation.Do(httpReq)
	if err != nil {
		return &domain.LLMUnavailableError{Service: domain.ServiceOllama, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &domain.LLMProtocolError{
			Service:    domain.ServiceOllama,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       truncate(buf.Bytes()),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if msg := gjson.GetBytes(line, "error"); msg.Exists() {
			return &domain.LLMProtocolError{Service: domain.ServiceOllama, URL: url, Body: string(line), Err: errors.New(msg.String())}
		}
		var update domain.PullProgress
		if err := json.Unmarshal(line, &update); err != nil {
			return &domain.LLMProtocolError{Service: domain.ServiceOllama, URL: url, Body: string(line), Err: err}
		}
		if progress != nil {
			progress(update)
		}
	}
	if err := scanner.Err(); err != nil {
		return &domain.LLMUnavailableError{Service: domain.ServiceOllama, URL: url, Err: err}
	}
	return nil
}

// namesAt collects the non-empty strings found at a gjson array path.
func namesAt(body []byte, path string) []string {
	var names []string
	for _, v := range gjson.GetBytes(body, path).Array() {
		if name := strings.TrimSpace(v.String()); name != "" {
			names = append(names, name)
		}
	}
	return names
}

var (
	_ ports.Backend     = (*OllamaClient)(nil)
	_ ports.ModelPuller = (*OllamaClient)(nil)
)
