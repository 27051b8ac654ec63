package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/gatehouse/gatehouse/config"
	redisadapter "github.com/gatehouse/gatehouse/internal/adapters/redis"
	"github.com/gatehouse/gatehouse/internal/data"
	"github.com/gatehouse/gatehouse/internal/password"
	"github.com/gatehouse/gatehouse/internal/ports"
	"github.com/gatehouse/gatehouse/internal/service"
)

// ServiceContainer holds all initialized services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Reaper   *service.ReaperService
	Sessions ports.SessionStore
}

// ServiceDeps contains dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices initializes all application services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions, err := newSessionStore(deps)
	if err != nil {
		return ServiceContainer{}, err
	}

	hasher, err := password.NewHasher(password.DefaultParams())
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init password hasher: %w", err)
	}

	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Users:      data.NewUserRepo(deps.DB),
		Sessions:   sessions,
		Hasher:     hasher,
		SessionTTL: deps.Config.Sessions.TTL(),
		Logger:     logger,
	})

	var reaper *service.ReaperService
	if deps.Config.Reaper.Enabled && deps.Config.Sessions.Backend == config.SessionBackendPostgres {
		reaper, err = service.NewReaperService(service.ReaperServiceOptions{
			Sessions: sessions,
			Config:   deps.Config.Reaper,
			Logger:   logger,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("init session reaper: %w", err)
		}
	}

	return ServiceContainer{
		Auth:     authSvc,
		Reaper:   reaper,
		Sessions: sessions,
	}, nil
}

// newSessionStore selects the session store implementation from config.
// Redis evicts expired sessions natively, so the reaper only runs against
// the Postgres store.
//
//nolint:ireturn // callers program against the port, not a concrete store.
func newSessionStore(deps *ServiceDeps) (ports.SessionStore, error) {
	switch deps.Config.Sessions.Backend {
	case config.SessionBackendRedis:
		if deps.RedisClient == nil {
			return nil, errors.New("redis session backend selected but no redis client configured")
		}
		return redisadapter.NewSessionStore(deps.RedisClient), nil
	case config.SessionBackendPostgres:
		fallthrough
	default:
		if deps.DB == nil {
			return nil, errors.New("postgres session backend selected but no database configured")
		}
		return data.NewSessionRepo(deps.DB), nil
	}
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// RunServicesWithShutdown starts the HTTP server and background services and
// blocks until a shutdown signal arrives or one of them fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := NewHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Services.Reaper != nil {
		g.Go(func() error {
			return cfg.Services.Reaper.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  server,
			Logger:  logger,
		})
	})

	return g.Wait()
}
