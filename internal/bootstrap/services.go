package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobradar/jobradar/config"
	"github.com/jobradar/jobradar/internal/adapters/alertloop"
	"github.com/jobradar/jobradar/internal/adapters/mailer"
	"github.com/jobradar/jobradar/internal/adapters/refreshcron"
	"github.com/jobradar/jobradar/internal/adapters/serpapi"
	"github.com/jobradar/jobradar/internal/core"
	"github.com/jobradar/jobradar/internal/data"
	"github.com/jobradar/jobradar/internal/domain/model"
	"github.com/jobradar/jobradar/internal/providers"
	"github.com/jobradar/jobradar/internal/service"
)

const shutdownWaitTimeout = 30 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Aggregate   *service.AggregateService
	Query       *service.QueryService
	Discovery   *service.DiscoveryService
	Alerts      *service.AlertService
	AlertRunner *service.AlertRunnerService
	Cache       core.CacheRepository
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires the repositories, adapters and services. The message
// sender stays nil when SMTP credentials are absent; the alert runner then
// fails its sends and alerts record the error instead of silently dropping.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.DB == nil {
		return ServiceContainer{}, errors.New("service dependencies require config and database")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := providers.NewRegistry(nil)
	companyRepo := data.NewCompanyRepo(deps.DB)
	jobRepo := data.NewJobRepo(deps.DB)
	alertRepo := data.NewAlertRepo(deps.DB)
	cache := buildCache(deps, logger)

	aggregate := service.NewAggregateService(service.AggregateServiceOptions{
		Registry:  registry,
		Companies: companyRepo,
		Jobs:      jobRepo,
		Logger:    logger,
	})
	query := service.NewQueryService(service.QueryServiceOptions{
		Jobs:   jobRepo,
		Logger: logger,
	})
	discovery := service.NewDiscoveryService(service.DiscoveryServiceOptions{
		Search: serpapi.NewClient(serpapi.ClientOptions{}),
		Cache:  cache,
		Config: service.DiscoveryConfig{
			APIKey:       deps.Config.Discovery.APIKey,
			NumResults:   deps.Config.Discovery.NumResults,
			NoCache:      deps.Config.Discovery.NoCache,
			CityMode:     deps.Config.Discovery.CityMode,
			ProviderMode: deps.Config.Discovery.ProviderMode,
			CacheTTL:     deps.Config.Cache.TTL,
		},
		Logger: logger,
	})
	alerts := service.NewAlertService(service.AlertServiceOptions{
		Alerts: alertRepo,
		Logger: logger,
	})

	sender, err := buildSender(deps.Config.Mail, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	alertRunner := service.NewAlertRunnerService(service.AlertRunnerServiceOptions{
		Alerts: alertRepo,
		Query:  query,
		Sender: sender,
		Logger: logger,
	})

	return ServiceContainer{
		Aggregate:   aggregate,
		Query:       query,
		Discovery:   discovery,
		Alerts:      alerts,
		AlertRunner: alertRunner,
		Cache:       cache,
	}, nil
}

// buildCache selects the search cache backend.
//
//nolint:ireturn // the backend is picked at runtime from configuration.
func buildCache(deps *ServiceDeps, logger *slog.Logger) core.CacheRepository {
	if deps.Config.Cache.Backend == "redis" {
		if deps.RedisClient == nil {
			logger.Warn("redis cache backend configured without a redis connection, falling back to file cache")
		} else {
			return data.NewRedisCacheRepo(deps.RedisClient)
		}
	}
	return data.NewFileCacheRepo(deps.Config.Cache.Dir)
}

// buildSender creates the SMTP sender, or nil when credentials are missing.
func buildSender(cfg config.MailConfig, logger *slog.Logger) (core.MessageSender, error) {
	if cfg.User == "" || cfg.Pass == "" {
		logger.Warn("SMTP credentials not configured, alert delivery disabled")
		return nil, nil //nolint:nilnil // absent sender is a valid degraded mode
	}
	sender, err := mailer.NewMailer(mailer.MailerOptions{
		Host: cfg.Host,
		Port: cfg.Port,
		User: cfg.User,
		Pass: cfg.Pass,
		From: cfg.EffectiveFrom(),
	})
	if err != nil {
		return nil, fmt.Errorf("build mailer: %w", err)
	}
	return sender, nil
}

// ServiceOrchestrationConfig groups everything needed to run the enabled
// background services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// backgroundService pairs a service mode with its blocking start function.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(ctx context.Context) error
}

// backgroundServiceHandle tracks a started background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

func buildBackgroundServices(cfg *ServiceOrchestrationConfig) ([]backgroundService, error) {
	alertRunnerSvc := func(ctx context.Context) error {
		runner, err := alertloop.NewRunner(alertloop.RunnerOptions{
			Sweeper:    cfg.Services.AlertRunner,
			Interval:   cfg.Config.AlertRunner.Interval,
			BatchLimit: cfg.Config.AlertRunner.BatchLimit,
			Logger:     cfg.Logger,
		})
		if err != nil {
			return fmt.Errorf("build alert runner: %w", err)
		}
		return runner.Run(ctx)
	}

	refreshRunnerSvc := func(ctx context.Context) error {
		companiesFile := cfg.Config.CompaniesFile
		runner, err := refreshcron.NewRunner(refreshcron.RunnerOptions{
			Refresher: cfg.Services.Aggregate,
			Load: func() ([]model.CompanyInput, int, error) {
				return data.LoadCompaniesFile(companiesFile)
			},
			CronSpec: cfg.Config.RefreshRunner.CronSpec,
			Cities:   cfg.Config.RefreshRunner.Cities,
			Keywords: cfg.Config.RefreshRunner.Keywords,
			Provider: cfg.Config.RefreshRunner.Provider,
			Logger:   cfg.Logger,
		})
		if err != nil {
			return fmt.Errorf("build refresh runner: %w", err)
		}
		return runner.Run(ctx)
	}

	return []backgroundService{
		{mode: config.ServiceModeAlertRunner, name: "alert runner", start: alertRunnerSvc},
		{mode: config.ServiceModeRefreshRunner, name: "refresh runner", start: refreshRunnerSvc},
	}, nil
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
		cfg.Logger = logger
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	services, err := buildBackgroundServices(cfg)
	if err != nil {
		return err
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, len(services)+1)
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		if !enabled[svc.mode] {
			continue
		}
		done := make(chan struct{})
		handles = append(handles, backgroundServiceHandle{name: svc.name, done: done})
		go func(svc backgroundService, done chan struct{}) {
			defer close(done)
			if runErr := svc.start(serviceCtx); runErr != nil {
				errCh <- fmt.Errorf("%s: %w", svc.name, runErr)
			}
		}(svc, done)
		logger.Info("service started", "service", svc.name)
	}

	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		logger:      logger,
		backgrounds: handles,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		gracefulStop(cfg)
		return nil
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		gracefulStop(cfg)
		return err
	}
}

// gracefulStop waits for background services to finish.
func gracefulStop(cfg shutdownConfig) {
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
