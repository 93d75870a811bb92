package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/pkg/metrics"
	"github.com/doeshing/promptcraft/internal/ports"
)

const refreshKey = "models"

// Registry merges the model lists of every enabled backend.
type Registry struct {
	listers []ports.ModelLister
	cache   ports.ModelCache
	timeout time.Duration
	logger  ports.Logger
	group   singleflight.Group
}

// NewRegistry builds a registry over listers. Each listing call is bounded by timeout.
func NewRegistry(listers []ports.ModelLister, cache ports.ModelCache, timeout time.Duration, logger ports.Logger) *Registry {
	if timeout <= 0 {
		timeout = domain.DefaultDiscoveryTimeout
	}
	return &Registry{
		listers: listers,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
	}
}

// Discover returns the tagged, sorted model list. A fresh cache is served unless
// forceRefresh is set. When no backend reports a model the result is the
// single NoModelsSentinel entry.
func (r *Registry) Discover(ctx context.Context, forceRefresh bool) []string {
	if !forceRefresh {
		if cached, ok := r.cache.Get(); ok {
			return cached
		}
	}

	// The refresh is shared and cached, so one caller going away must not cut
	// it short. Each lister stays bounded by r.timeout.
	v, _, _ := r.group.Do(refreshKey, func() (interface{}, error) {
		models := r.refresh(context.WithoutCancel(ctx))
		r.cache.Set(models)
		return models, nil
	})
	models := v.([]string)
	out := make([]string, len(models))
	copy(out, models)
	return out
}

// Invalidate drops the cached list so the next Discover re-queries.
func (r *Registry) Invalidate() {
	r.cache.Invalidate()
}

func (r *Registry) refresh(ctx context.Context) []string {
	var (
		mu    sync.Mutex
		found = make(map[domain.Service][]string, len(r.listers))
	)

	// Failures are swallowed per backend, so the group never cancels siblings.
	var eg errgroup.Group
	for _, lister := range r.listers {
		lister := lister
		eg.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			names, err := lister.ListModels(callCtx)
			if err != nil {
				r.logger.Warn("model discovery failed", map[string]interface{}{
					"service": string(lister.Service()),
					"error":   err.Error(),
				})
				return nil
			}
			mu.Lock()
			found[lister.Service()] = append(found[lister.Service()], names...)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	var tagged []string
	for _, service := range domain.Services {
		metrics.DiscoveredModels.WithLabelValues(string(service)).Set(float64(len(found[service])))
		for _, name := range found[service] {
			tagged = append(tagged, domain.ModelDescriptor{Service: service, Name: name}.DisplayName())
		}
	}
	models := dedupeSorted(tagged)

	if len(models) == 0 {
		r.logger.Warn("no models found on any backend", nil)
		return []string{domain.NoModelsSentinel}
	}
	r.logger.Debug("models discovered", map[string]interface{}{"count": len(models)})
	return models
}

func dedupeSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
