package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/travel-expense-portal/internal/application/autosave"
	"github.com/garyjia/travel-expense-portal/internal/application/dispatcher"
	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/garyjia/travel-expense-portal/internal/application/service"
	"github.com/garyjia/travel-expense-portal/internal/config"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/garyjia/travel-expense-portal/internal/domain/event"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/clock"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/export"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/external/openai"
	"github.com/garyjia/travel-expense-portal/internal/infrastructure/metrics"
	httpserver "github.com/garyjia/travel-expense-portal/internal/interfaces/http"
	"github.com/garyjia/travel-expense-portal/pkg/utils"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger
	kv     port.Logger

	// Infrastructure
	store     *StoreBundle
	metrics   *metrics.Metrics
	extractor *openai.Extractor
	notifier  port.SubmissionNotifier
	clock     port.Clock

	// Application
	dispatcher dispatcher.Dispatcher
	saver      *autosave.Controller
	session    *service.FormSession
	registry   *service.CategoryRegistry
	ledger     *service.LineItemLedger

	// Interfaces
	server *httpserver.Server

	// Lifecycle
	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// Option configures a Container before Start
type Option func(*Container)

// WithClock replaces the system clock
func WithClock(c port.Clock) Option {
	return func(ct *Container) { ct.clock = c }
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{
		config: cfg,
		logger: logger,
		kv:     utils.NewKeyValueLogger(logger),
		clock:  clock.NewSystem(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes all components:
// 1. Store and metrics
// 2. External clients (OpenAI, Lark)
// 3. Dispatcher and subscriptions
// 4. Session and ledger, restored from the store
// 5. HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return errors.New("container has been closed")
	}
	if c.ready.Load() {
		return errors.New("container already started")
	}

	c.logger.Info("Starting container initialization")

	store, err := ProvideStore(ctx, &c.config.Storage, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.store = store
	c.metrics = metrics.New()
	c.logger.Info("Store initialized", zap.String("driver", c.config.Storage.Driver))

	extractor, err := ProvideExtractor(&c.config.OpenAI, c.metrics.RecordExtraction, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}
	c.extractor = extractor
	c.notifier = ProvideNotifier(&c.config.Lark, c.logger)

	c.dispatcher = dispatcher.NewDispatcher(dispatcher.WithLogger(c.kv))
	if c.notifier != nil {
		c.dispatcher.SubscribeNamed(event.TypeTripSubmitted, "lark-approver-card",
			service.NotifySubmissionHandler(c.notifier))
	}

	if err := c.initServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	if err := c.initServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

func (c *Container) initServices(ctx context.Context) error {
	c.saver = autosave.NewController(c.store.Store, entity.DraftKey, c.clock, autosave.Config{
		Debounce: c.config.Autosave.Debounce,
		Settle:   c.config.Autosave.Settle,
		Display:  c.config.Autosave.Display,
	},
		autosave.WithLogger(c.kv),
		autosave.WithObserver(func(t autosave.Transition) {
			c.metrics.RecordAutosaveTransition(t.From.String(), t.To.String())
		}),
		autosave.WithWriteHook(c.metrics.RecordAutosaveWrite),
	)

	c.session = service.NewFormSession(c.store.Store, c.saver, c.extractor, c.clock,
		service.WithSessionLogger(c.kv),
		service.WithSessionDispatcher(c.dispatcher),
	)
	if c.session.Restore(ctx) {
		c.logger.Info("Restored travel request draft")
	}

	c.registry = service.NewCategoryRegistry(c.store.Store, c.kv)
	if err := c.registry.Load(ctx); err != nil {
		c.logger.Warn("Using built-in categories", zap.Error(err))
	}

	c.ledger = service.NewLineItemLedger(c.registry, c.extractor, c.extractor,
		export.NewExcelExporter(c.logger), c.clock,
		service.WithLedgerLogger(c.kv),
		service.WithLedgerDispatcher(c.dispatcher),
	)
	return nil
}

func (c *Container) initServer() error {
	srv := c.config.Server
	opts := []httpserver.Option{httpserver.WithMetrics(c.metrics)}
	if c.config.RateLimit.Enabled {
		l, err := httpserver.NewMemoryLimiter(c.config.RateLimit.Rate)
		if err != nil {
			return err
		}
		opts = append(opts, httpserver.WithExtractionLimiter(l))
	}

	c.server = httpserver.NewServer(httpserver.ServerConfig{
		Addr:            srv.Addr(),
		ReadTimeout:     srv.ReadTimeout,
		WriteTimeout:    srv.WriteTimeout,
		ShutdownTimeout: srv.ShutdownTimeout,
		AllowedOrigins:  srv.AllowedOrigins,
		MaxUploadBytes:  srv.MaxUploadBytes,
	}, c.session, c.ledger, c.kv, opts...)
	return nil
}

// Close shuts down all components in reverse order. Pending autosave
// timers are cancelled; an in-flight write may still finish.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return errors.New("container already closed")
	}
	c.logger.Info("Closing container")

	var errs []error

	if c.saver != nil {
		c.saver.Stop()
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.store != nil {
		if err := c.store.Closer.Close(); err != nil {
			c.logger.Error("Failed to close store", zap.Error(err))
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Server returns the HTTP server.
func (c *Container) Server() *httpserver.Server {
	return c.server
}

// Session returns the travel request session.
func (c *Container) Session() *service.FormSession {
	return c.session
}

// Ledger returns the expense claim ledger.
func (c *Container) Ledger() *service.LineItemLedger {
	return c.ledger
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Extractor returns the OpenAI extractor.
func (c *Container) Extractor() *openai.Extractor {
	return c.extractor
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
