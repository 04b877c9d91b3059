// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"sync"

	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/config"
	"github.com/fd1az/crosschain-arb/internal/di"
	"github.com/fd1az/crosschain-arb/internal/health"
	"github.com/fd1az/crosschain-arb/internal/logger"
	"github.com/fd1az/crosschain-arb/internal/redisclient"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Redis() *redisclient.Client
	Services() di.ServiceRegistry
	RegisterHealthCheck(name string, check health.CheckFunc)
	// OnClose queues fn to run when the monolith closes, last registered first.
	OnClose(fn func())
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	redis     *redisclient.Client
	health    *health.Server
	container di.Container

	mu      sync.Mutex
	closers []func()
}

// New creates a new Monolith instance. Redis is optional: when configured but
// unreachable, New fails rather than silently falling back.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface, healthServer *health.Server) (*app, error) {
	var rc *redisclient.Client
	if cfg.Redis.Enabled() {
		var err error
		rc, err = redisclient.New(ctx, redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, apperror.New(apperror.CodeRedisConnectionFailed,
				apperror.WithCause(err),
				apperror.WithContext(cfg.Redis.Addr))
		}
		log.Info(ctx, "redis connected", "addr", cfg.Redis.Addr)
	}

	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("redis", rc)

	a := &app{
		config:    cfg,
		logger:    log,
		redis:     rc,
		health:    healthServer,
		container: container,
	}

	if rc != nil {
		a.RegisterHealthCheck("redis", func(ctx context.Context) (bool, string) {
			if err := rc.Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, "ok"
		})
	}

	return a, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

// Redis returns the shared client, or nil when Redis is not configured.
func (a *app) Redis() *redisclient.Client {
	return a.redis
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// RegisterHealthCheck adds a readiness check; a no-op without a health server.
func (a *app) RegisterHealthCheck(name string, check health.CheckFunc) {
	if a.health != nil {
		a.health.RegisterCheck(name, check)
	}
}

func (a *app) OnClose(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close runs module cleanups, then closes shared resources.
func (a *app) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
