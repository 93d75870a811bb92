package llm

import (
	"fmt"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
)

// Factory builds one client per enabled backend and hands them out by service.
type Factory struct {
	ollama   *OllamaClient
	lmstudio *LMStudioClient
	enabled  map[domain.Service]bool
}

// NewFactory wires clients from cfg. Disabled backends are still constructed so
// explicit routes keep working, but Listers omits them.
func NewFactory(cfg domain.Config, logger ports.Logger) *Factory {
	transport := newHTTPTransport(cfg.Discovery.Timeout)
	return &Factory{
		ollama:   NewOllamaClient(cfg.Backends.Ollama, transport),
		lmstudio: NewLMStudioClient(cfg.Backends.LMStudio, transport, logger),
		enabled: map[domain.Service]bool{
			domain.ServiceOllama:   cfg.Backends.Ollama.Enabled,
			domain.ServiceLMStudio: cfg.Backends.LMStudio.Enabled,
		},
	}
}

// ForService returns the client for service.
func (f *Factory) ForService(service domain.Service) (ports.Backend, error) {
	switch service {
	case domain.ServiceOllama:
		return f.ollama, nil
	case domain.ServiceLMStudio:
		return f.lmstudio, nil
	default:
		return nil, fmt.Errorf("unsupported service: %s", service)
	}
}

// Listers returns the enabled backends in display order.
func (f *Factory) Listers() []ports.ModelLister {
	var listers []ports.ModelLister
	for _, service := range domain.Services {
		if !f.enabled[service] {
			continue
		}
		backend, err := f.ForService(service)
		if err != nil {
			continue
		}
		listers = append(listers, backend)
	}
	return listers
}

// Puller returns the backend able to download models.
func (f *Factory) Puller() ports.ModelPuller {
	return f.ollama
}
