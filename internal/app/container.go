package app

import (
	"context"
	"fmt"
	"time"

	"github.com/doeshing/promptcraft/internal/application/catalog"
	appconfig "github.com/doeshing/promptcraft/internal/application/config"
	"github.com/doeshing/promptcraft/internal/application/crafter"
	"github.com/doeshing/promptcraft/internal/application/doctor"
	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/infrastructure/cache"
	"github.com/doeshing/promptcraft/internal/infrastructure/config"
	"github.com/doeshing/promptcraft/internal/infrastructure/history"
	"github.com/doeshing/promptcraft/internal/infrastructure/llm"
	"github.com/doeshing/promptcraft/internal/pkg/logger"
	"github.com/doeshing/promptcraft/internal/ports"
)

// History store labels used in metrics.
const (
	StoreCLI = "cli"
	StoreAPI = "api"
)

// Options tune container construction.
type Options struct {
	// ConfigPath overrides ~/.promptcraft/config.yaml.
	ConfigPath string
	Verbose    bool
	// SkipValidation keeps going when the config file is unreadable or invalid,
	// recording the problem in ConfigErr. Used by config and doctor commands.
	SkipValidation bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	// ConfigErr is set when a lenient Init tolerated a bad config.
	ConfigErr error
	Logger    *logger.Logger
	Backends  *llm.Factory
	// Crafter serves the CLI and records into history.path.
	Crafter       *crafter.Service
	DoctorService *doctor.Service

	cleanups []func()
}

// NewContainer returns an empty container; Init populates it.
func NewContainer() *Container {
	return &Container{}
}

// BuildContainer constructs the dependency graph for the CLI.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	c := NewContainer()
	if err := c.Init(ctx, opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Init loads configuration and builds every service.
func (c *Container) Init(ctx context.Context, opts Options) error {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	c.ConfigProvider = cfgLoader
	c.ConfigLoader = cfgLoader
	c.Logger = logger.NewNop()

	cfg, err := cfgLoader.Load(ctx)
	if err == nil {
		if verr := appconfig.Validate(cfg); verr != nil {
			err = fmt.Errorf("invalid configuration %s: %w", cfgLoader.Path(), verr)
		}
	}
	if err != nil {
		if !opts.SkipValidation {
			return err
		}
		c.ConfigErr = err
		c.Backends = llm.NewFactory(cfg, c.Logger)
		c.DoctorService = c.newDoctor(cfg)
		return nil
	}
	c.Config = cfg

	level := cfg.Logging.Level
	if opts.Verbose {
		level = logger.LogLevelDebug
	}
	log, logCleanup, err := logger.New(logger.Config{
		Level:      level,
		LogDir:     cfg.Logging.Dir,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		FileOutput: cfg.Logging.FileOutput,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.Logger = log
	c.cleanups = append(c.cleanups, logCleanup)
	c.Backends = llm.NewFactory(cfg, log)

	var modelCache ports.ModelCache
	if cfg.Discovery.PersistCache && cfg.Discovery.CachePath != "" {
		modelCache = cache.NewFileModelCache(cfg.Discovery.CachePath, cfg.Discovery.CacheTTL, nil, log)
	} else {
		modelCache = catalog.NewMemoryCache(cfg.Discovery.CacheTTL, nil)
	}

	var store ports.HistoryRepository
	if cfg.History.Enabled {
		repo, release, err := history.Open(cfg.History.Backend, cfg.History.Path, nil, log)
		switch {
		case err == nil:
			store = repo
			c.cleanups = append(c.cleanups, release)
		case opts.SkipValidation:
			log.Warn("history store unavailable", map[string]interface{}{"path": cfg.History.Path, "error": err.Error()})
		default:
			c.Close()
			return fmt.Errorf("open history: %w", err)
		}
	}

	c.Crafter = c.newCrafter(modelCache, store, StoreCLI, cfg.Generation.Timeout)
	c.DoctorService = c.newDoctor(cfg)
	return nil
}

func (c *Container) newDoctor(cfg domain.Config) *doctor.Service {
	return &doctor.Service{
		ConfigProvider: c.ConfigProvider,
		Backends:       c.Backends,
		Timeout:        cfg.Discovery.Timeout,
	}
}

// NewAPIService builds the crafter used by `serve`. It owns an in-memory model
// cache and a history store at server.history_path, independent from the CLI's.
func (c *Container) NewAPIService() (*crafter.Service, error) {
	var store ports.HistoryRepository
	if c.Config.Server.HistoryPath != "" {
		repo, release, err := history.Open(c.Config.History.Backend, c.Config.Server.HistoryPath, nil, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("open api history: %w", err)
		}
		store = repo
		c.cleanups = append(c.cleanups, release)
	}
	modelCache := catalog.NewMemoryCache(c.Config.Discovery.CacheTTL, nil)
	return c.newCrafter(modelCache, store, StoreAPI, c.Config.Server.GenerationTimeout), nil
}

func (c *Container) newCrafter(modelCache ports.ModelCache, store ports.HistoryRepository, label string, timeout time.Duration) *crafter.Service {
	registry := catalog.NewRegistry(c.Backends.Listers(), modelCache, c.Config.Discovery.Timeout, c.Logger)
	return &crafter.Service{
		Catalog:      registry,
		Router:       catalog.NewRouter(c.Config),
		Backends:     c.Backends,
		Puller:       c.Backends.Puller(),
		History:      store,
		HistoryLabel: label,
		Logger:       c.Logger,
		Timeout:      timeout,
		MaxTokens:    c.Config.Generation.MaxTokens,
	}
}

// Close releases stores and flushes log files.
func (c *Container) Close() {
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		if c.cleanups[i] != nil {
			c.cleanups[i]()
		}
	}
	c.cleanups = nil
}
