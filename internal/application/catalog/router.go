package catalog

import (
	"strings"

	"github.com/doeshing/promptcraft/internal/domain"
)

// Router maps a display selector back to its backend.
type Router struct {
	baseURLs map[domain.Service]string
	fallback domain.Service
}

// NewRouter builds the lookup table once from cfg.
func NewRouter(cfg domain.Config) *Router {
	table := make(map[domain.Service]string, len(domain.Services))
	for _, service := range domain.Services {
		table[service] = cfg.BaseURL(service)
	}
	return &Router{baseURLs: table, fallback: domain.ServiceLMStudio}
}

// Resolve strips a known service tag from display. An unrecognized prefix is not
// an error: the whole string is treated as an LM Studio model name.
func (r *Router) Resolve(display string) domain.ModelRoute {
	trimmed := strings.TrimSpace(display)
	for _, service := range domain.Services {
		tag := service.Tag()
		if strings.HasPrefix(trimmed, tag) {
			return domain.ModelRoute{
				Service: service,
				Model:   strings.TrimSpace(strings.TrimPrefix(trimmed, tag)),
				BaseURL: r.baseURLs[service],
			}
		}
	}
	return domain.ModelRoute{
		Service: r.fallback,
		Model:   trimmed,
		BaseURL: r.baseURLs[r.fallback],
	}
}
