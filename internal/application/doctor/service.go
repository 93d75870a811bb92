package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	appconfig "github.com/doeshing/promptcraft/internal/application/config"
	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Backends       ports.BackendFactory
	// Timeout bounds each backend probe; zero uses the discovery default.
	Timeout time.Duration
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s", cfg.ConfigFormatVersion)))
	}

	for _, service := range domain.Services {
		checks = append(checks, s.backendCheck(ctx, cfg, service))
	}

	if cfg.History.Enabled {
		checks = append(checks, pathCheck("History store", cfg.History.Path))
	} else {
		checks = append(checks, warn("History store", "disabled"))
	}
	if cfg.Server.HistoryPath != "" {
		checks = append(checks, pathCheck("API history store", cfg.Server.HistoryPath))
	}

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) backendCheck(ctx context.Context, cfg domain.Config, service domain.Service) domain.HealthCheck {
	name := service.Label()
	if !cfg.ServiceEnabled(service) {
		return warn(name, "disabled")
	}
	if s.Backends == nil {
		return warn(name, "backend factory not initialized")
	}
	backend, err := s.Backends.ForService(service)
	if err != nil {
		return fail(name, err.Error())
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultDiscoveryTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	models, err := backend.ListModels(probeCtx)
	if err != nil {
		return warn(name, fmt.Sprintf("unreachable at %s: %v", cfg.BaseURL(service), err))
	}
	if len(models) == 0 {
		return warn(name, fmt.Sprintf("reachable at %s, no models installed", cfg.BaseURL(service)))
	}
	return ok(name, fmt.Sprintf("%d model(s) at %s", len(models), cfg.BaseURL(service)))
}

// pathCheck verifies the directory holding path exists or can be created.
func pathCheck(name, path string) domain.HealthCheck {
	if path == "" {
		return fail(name, "path not configured")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return fail(name, fmt.Sprintf("cannot create %s: %v", dir, err))
	}
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return fail(name, fmt.Sprintf("%s is a directory", path))
	case err == nil:
		return ok(name, fmt.Sprintf("%s (%d bytes)", path, info.Size()))
	case os.IsNotExist(err):
		return ok(name, fmt.Sprintf("%s (not created yet)", path))
	default:
		return fail(name, err.Error())
	}
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
