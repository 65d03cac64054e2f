// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"school-assistant/internal/config"
	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/domain/ports/repository"
	aiAdapters "school-assistant/internal/infra/adapters/ai"
	"school-assistant/internal/infra/datacache"
	"school-assistant/internal/infra/dispatch"
	"school-assistant/internal/infra/logging"
	"school-assistant/internal/infra/memory"
	"school-assistant/internal/infra/metrics"
	red "school-assistant/internal/infra/redis"
	"school-assistant/internal/infra/scheduler"
	"school-assistant/internal/infra/sheets"
	"school-assistant/internal/infra/web"
	"school-assistant/internal/infra/worker"
	"school-assistant/internal/retrieval"
	"school-assistant/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory store, fake AI without keys)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	for _, w := range cfg.Runtime.Warnings {
		logger.Warn().Msg(w)
	}
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}
	appVersion := version
	if cfg.School.AppVersion != "" {
		appVersion = cfg.School.AppVersion
	}
	metrics.SetBuildInfo(appVersion, commit)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	// ---- Session store ----
	var (
		jobs        repository.JobRepository
		limiter     repository.RateLimiter
		redisClient *red.Client
	)
	if cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer c.Close()
		redisClient = c
		jobs = red.NewJobRepo(c, cfg.Jobs.TTL)
		limiter = red.NewRateLimiter(c)
	} else {
		logger.Warn().Msg("redis.url not set; using the in-memory job store (single instance only)")
		jobs = memory.NewJobRepo(cfg.Jobs.TTL, nil)
		limiter = memory.NewRateLimiter(nil)
	}

	// ---- LLM: one adapter per key behind rotation ----
	var members []adapter.AIServiceAdapter
	for i, key := range cfg.AI.Keys {
		g, err := aiAdapters.NewGeminiAdapter(ctx, key, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			return fmt.Errorf("gemini adapter %d: %w", i, err)
		}
		members = append(members, g)
	}
	if len(members) == 0 && cfg.Runtime.Dev {
		logger.Warn().Msg("no GEMINI_API_KEYS; using the canned dev AI adapter")
		members = append(members, aiAdapters.NewNoopAIAdapter(logger))
	}
	keyPool := aiAdapters.NewKeyPool(members, logger)
	ai := aiAdapters.NewLimitedAI(keyPool, cfg.AI.ConcurrentLimit)
	logger.Info().Int("keys", keyPool.Len()).Str("model", cfg.AI.DefaultModel).Msg("AI adapter ready")

	// ---- Data ----
	fetcher := sheets.NewHTTPFetcher(sheets.FetcherConfig{Timeout: cfg.Jobs.FetchTimeout})
	cache := datacache.New(cfg.Data.Sources, fetcher, cfg.Data.CacheDuration, nil, logger)
	relations := retrieval.ParseRelationships(cfg.Data.Relationships)
	if cfg.Data.WarmInterval > 0 && len(cfg.Data.Sources) > 0 {
		warmer := scheduler.NewScheduler("data-warm", cfg.Data.WarmInterval, cfg.Jobs.FetchTimeout, cache.Refresh, logger)
		warmer.Start(ctx, true)
		defer warmer.Stop()
	}

	// ---- Processor + worker pool ----
	processor := worker.NewJobProcessor(
		jobs,
		cache,
		retrieval.NewPlanner(ai, logger),
		retrieval.NewExecutor(relations, logger),
		ai,
		worker.ProcessorConfig{
			DefaultModel:    cfg.AI.DefaultModel,
			SchoolName:      cfg.School.NameFull,
			SampleRows:      cfg.Data.SampleRows,
			FetchTimeout:    cfg.Jobs.FetchTimeout,
			PlanTimeout:     cfg.Jobs.PlanTimeout,
			GenerateTimeout: cfg.Jobs.GenerateTimeout,
			JobTimeout:      cfg.Jobs.JobTimeout,
		},
		logger,
	)
	pool := worker.NewPool(cfg.Jobs.Workers, logger)
	pool.Start(context.WithoutCancel(ctx))
	defer pool.Stop()
	local := dispatch.NewLocalQueue(pool, processor)

	// ---- Use cases ----
	jobUC := usecase.NewJobUseCase(jobs, limiter, usecase.JobSettings{
		ModelAllowed: cfg.AI.ModelAllowed,
		SubmitLimit:  cfg.Jobs.SubmitLimit,
		SubmitWindow: cfg.Jobs.SubmitWindow,
	}, logger)

	switch cfg.Dispatch.Mode {
	case "http":
		jobUC.SetQueue(dispatch.NewHTTPTrigger(pool, cfg.Server.BaseURL, cfg.Dispatch.InternalSecret, nil, jobUC.MarkDispatchFailed, logger))
	case "redis":
		streams := dispatch.NewStreamsQueue(redisClient.Raw(), dispatch.StreamsConfig{
			Stream:   cfg.Dispatch.Stream,
			Group:    cfg.Dispatch.Group,
			Consumer: cfg.Dispatch.Consumer,
		}, pool, processor, logger)
		jobUC.SetQueue(streams)
		go func() {
			if err := streams.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("stream consumer stopped")
			}
		}()
	default:
		jobUC.SetQueue(local)
	}
	logger.Info().Str("mode", cfg.Dispatch.Mode).Int("workers", cfg.Jobs.Workers).Msg("dispatch ready")

	starters := usecase.NewStartersUseCase(cache, ai, cfg.AI.DefaultModel, cfg.Data.SampleRows)
	status := usecase.NewStatusUseCase(cfg.Data.Sources, fetcher, keyPool.Primary(), cfg.AI.DefaultModel)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie, cfg.Auth.CookieDomain, cfg.Auth.SessionTTL)
	srv := web.NewServer(jobUC, local, starters, status, auth, web.Options{
		AdminPassword:  cfg.Auth.AdminPassword,
		InternalSecret: cfg.Dispatch.InternalSecret,
		RequestTimeout: cfg.Server.RequestTimeout,
		Public: web.PublicConfig{
			SchoolNameFull:  cfg.School.NameFull,
			SchoolNameShort: cfg.School.NameShort,
			AppVersion:      cfg.School.AppVersion,
			GoogleClientID:  cfg.Auth.GoogleClientID,
			IsGoogleLoginConfigured: cfg.Auth.GoogleClientID != "" && cfg.Auth.GoogleClientSecret != "" &&
				cfg.Auth.WorkspaceDomain != "" && cfg.Server.BaseURL != "",
			AppBaseURL: cfg.Server.BaseURL,
		},
	}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
