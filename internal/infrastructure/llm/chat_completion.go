package llm

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/doeshing/promptcraft/internal/domain"
)

const (
	roleSystem = "system"
	roleUser   = "user"

	// gjson paths for the completion text
	openAIContentPath = "choices.0.message.content"
	ollamaContentPath = "message.content"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

func toChatMessages(req domain.GenerationRequest) []chatMessage {
	return []chatMessage{
		{Role: roleSystem, Content: req.SystemPrompt},
		{Role: roleUser, Content: req.UserPrompt},
	}
}

func newChatCompletionRequest(req domain.GenerationRequest) chatCompletionRequest {
	return chatCompletionRequest{
		Model:       req.Model,
		Messages:    toChatMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      false,
	}
}

// extractContent pulls a string field out of a JSON body without a full unmarshal.
// A missing or non-string field is a protocol error carrying the raw body.
func extractContent(service domain.Service, url string, body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &domain.LLMProtocolError{Service: service, URL: url, Body: string(body), Err: errMalformedJSON}
	}
	result := gjson.GetBytes(body, path)
	if !result.Exists() || result.Type != gjson.String {
		return "", &domain.LLMProtocolError{Service: service, URL: url, Body: string(body), Err: missingField(path)}
	}
	return strings.TrimSpace(result.Str), nil
}
