// Package domain defines core business entities and value objects for promptcraft.
//
// This file contains the backend service and model definitions used throughout the
// application. The domain layer is independent of infrastructure concerns and
// represents pure business logic and data structures.
package domain

import (
	"fmt"
	"strings"
)

// Service identifies a local LLM server kind.
type Service string

const (
	ServiceLMStudio Service = "lmstudio"
	ServiceOllama   Service = "ollama"
)

// NoModelsSentinel is returned by discovery when no backend reported a model.
// It is a placeholder, never a selectable model.
const NoModelsSentinel = "No models found - start Ollama or LM Studio"

// Services lists the supported backends in display order.
var Services = []Service{ServiceLMStudio, ServiceOllama}

// Tag returns the display prefix used in model selectors.
func (s Service) Tag() string {
	switch s {
	case ServiceLMStudio:
		return "[LM Studio]"
	case ServiceOllama:
		return "[Ollama]"
	default:
		return "[" + string(s) + "]"
	}
}

// Label returns a human-readable backend name.
func (s Service) Label() string {
	return strings.Trim(s.Tag(), "[]")
}

// ParseService accepts either the identifier ("ollama") or the label ("Ollama").
func ParseService(value string) (Service, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	switch normalized {
	case string(ServiceLMStudio):
		return ServiceLMStudio, nil
	case string(ServiceOllama):
		return ServiceOllama, nil
	default:
		return "", fmt.Errorf("unknown service %q (expected lmstudio|ollama)", value)
	}
}

// ModelDescriptor names one model offered by one backend.
type ModelDescriptor struct {
	Service Service `json:"service"`
	Name    string  `json:"name"`
}

// DisplayName renders the unambiguous "[Service] name" selector.
func (m ModelDescriptor) DisplayName() string {
	return m.Service.Tag() + " " + m.Name
}

// IsSelectableModel reports whether a selector can be sent to a backend.
func IsSelectableModel(selector string) bool {
	trimmed := strings.TrimSpace(selector)
	return trimmed != "" && !strings.HasPrefix(trimmed, "No models")
}

// PullProgress is one line of a streaming model pull.
type PullProgress struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Completed *int64 `json:"completed,omitempty"`
	Total     *int64 `json:"total,omitempty"`
}

// Percent returns completed/total*100 when both counts are present.
func (p PullProgress) Percent() (float64, bool) {
	if p.Completed == nil || p.Total == nil || *p.Total <= 0 {
		return 0, false
	}
	return float64(*p.Completed) / float64(*p.Total) * 100, true
}

// ModelRoute is the resolved destination of a model selector.
type ModelRoute struct {
	Service Service
	Model   string
	BaseURL string
}
