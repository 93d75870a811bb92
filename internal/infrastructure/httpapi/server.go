// Package httpapi exposes the prompt operations over JSON/HTTP for node-based
// front ends. Each request is served on its own goroutine and makes at most one
// backend call.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
)

const shutdownTimeout = 5 * time.Second

// PromptService is the application surface the API serves.
type PromptService interface {
	GeneratePrompt(ctx context.Context, req domain.PromptRequest) (domain.PromptResult, error)
	GenerateIdeas(ctx context.Context, req domain.IdeasRequest) (domain.IdeasResult, error)
	GenerateSequence(ctx context.Context, req domain.SequenceRequest) (domain.SequenceResult, error)
	ListModels(ctx context.Context, refresh bool) []string
	LoadHistory(ctx context.Context, sel domain.HistorySelector) (domain.HistoryEntry, error)
	ListHistory(query string, filter domain.HistoryFilter) ([]domain.HistoryEntry, error)
	DeleteHistory(index int) error
	ClearHistory() error
	ExportHistory(format, dir string) (string, error)
	Style(text, preset string) (string, error)
	Negative(preset, additional string) (string, error)
	Combine(separator string, texts ...string) (string, error)
}

// Options configures the HTTP surface.
type Options struct {
	Address        string
	CORSOrigins    []string
	MetricsEnabled bool
	ReleaseMode    bool
	// ExportDir receives history exports.
	ExportDir string
}

// OptionsFromConfig maps the server section of the config file.
func OptionsFromConfig(cfg domain.Config) Options {
	return Options{
		Address:        cfg.Server.Address,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MetricsEnabled: cfg.Server.MetricsEnabled,
		ReleaseMode:    cfg.Server.ReleaseMode,
		ExportDir:      cfg.History.ExportDir,
	}
}

// Server owns the gin engine and the listening http.Server.
type Server struct {
	engine *gin.Engine
	opts   Options
	logger ports.Logger
}

// NewServer builds the router over svc.
func NewServer(svc PromptService, opts Options, logger ports.Logger) *Server {
	if opts.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(recovery(logger))
	engine.Use(requestID())
	engine.Use(corsMiddleware(opts.CORSOrigins))
	if opts.MetricsEnabled {
		engine.Use(metricsMiddleware())
	}
	engine.Use(requestLogger(logger))

	h := &handlers{svc: svc, exportDir: opts.ExportDir, logger: logger}

	engine.GET("/healthz", h.health)
	if opts.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/prompt", h.generatePrompt)
		v1.POST("/ideas", h.generateIdeas)
		v1.POST("/sequence", h.generateSequence)
		v1.GET("/models", h.listModels)

		history := v1.Group("/history")
		{
			history.GET("", h.listHistory)
			history.GET("/load", h.loadHistory)
			history.DELETE("", h.clearHistory)
			history.DELETE("/:index", h.deleteHistory)
			history.POST("/export", h.exportHistory)
		}

		tools := v1.Group("/tools")
		{
			tools.POST("/style", h.style)
			tools.POST("/negative", h.negative)
			tools.POST("/combine", h.combine)
		}
	}

	return &Server{engine: engine, opts: opts, logger: logger}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", map[string]interface{}{"address": s.opts.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", s.opts.Address, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http api shutting down", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
