package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"flowfarm/domain/model"
	"flowfarm/domain/repository"
	"flowfarm/infrastructure/cache"
	flowclient "flowfarm/infrastructure/clients/flow"
	"flowfarm/infrastructure/configuration"
	"flowfarm/infrastructure/dedup"
	"flowfarm/infrastructure/httpexec"
	"flowfarm/infrastructure/logger"
	"flowfarm/infrastructure/persistence"
	"flowfarm/infrastructure/pool"
	"flowfarm/infrastructure/realtime"
	httpHandler "flowfarm/interfaces/http"
	"flowfarm/server"
	"flowfarm/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App
	flowCfg := configuration.C.Flow

	laneStore, err := initiateLaneStore()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Lane store initialization failed")
		os.Exit(1)
	}

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - results kept in memory only")
		redisClient = nil
	}

	fallback := model.Lane{
		Name:             "default",
		Cookies:          flowCfg.DefaultCookies,
		SessionToken:     flowCfg.DefaultSession,
		Proxy:            flowCfg.DefaultProxy,
		DefaultProjectID: flowCfg.DefaultProjectID,
		DefaultSceneID:   flowCfg.DefaultSceneID,
	}
	tokenPool := pool.New(fallback)
	if err := tokenPool.Load(ctx, laneStore, configuration.C.Lanes.PoolNames); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pool load failed - continuing with fallback lane")
	}
	logger.GetLogger().WithField("lanes", tokenPool.Size()).Info("Token pool loaded")

	executor := httpexec.NewExecutor(2 * time.Minute)
	dedupCache := dedup.New()
	client := flowclient.NewClient(executor, dedupCache, flowclient.Config{
		BaseURL:    flowCfg.BaseURL,
		UploadURL:  flowCfg.UploadURL,
		MaxRetries: flowCfg.MaxRetries,
	})

	jobHub := realtime.NewJobHub()
	results := cache.NewResultCache(redisClient)

	pollerCfg := configuration.C.Poller
	poller := usecase.NewPoller(
		client,
		time.Duration(pollerCfg.IntervalMs)*time.Millisecond,
		pollerCfg.MaxAttempts,
		jobHub,
	)

	laneUsecase := usecase.NewLaneUsecase(laneStore, tokenPool, client, executor)
	genUsecase := usecase.NewGenerationUsecase(tokenPool, client, poller, results, jobHub)

	laneHandler := httpHandler.NewLaneHandler(laneUsecase)
	generateHandler := httpHandler.NewGenerateHandler(genUsecase)
	sceneHandler := httpHandler.NewSceneHandler(genUsecase)

	router := server.InitiateRouter(laneHandler, generateHandler, sceneHandler, jobHub)

	// Periodic bearer refresh keeps pooled lanes usable across long batches.
	sweeper := cron.New()
	spec := flowCfg.RefreshCronSpec
	if spec == "" {
		spec = "@every 10m"
	}
	if _, err := sweeper.AddFunc(spec, func() {
		sweepCtx, cancelSweep := context.WithTimeout(ctx, time.Minute)
		defer cancelSweep()
		laneUsecase.SweepStaleBearers(sweepCtx)
	}); err != nil {
		logger.GetLogger().WithField("error", err).Error("Invalid refresh cron spec")
	} else {
		sweeper.Start()
		defer sweeper.Stop()
	}

	port := app.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// initiateLaneStore selects the lane persistence backend: a flat JSON file by
// default, PostgreSQL when configured.
func initiateLaneStore() (repository.ILaneStore, error) {
	lanesCfg := configuration.C.Lanes
	switch lanesCfg.Store {
	case "postgres":
		db, err := persistence.NewPostgreSQLDB()
		if err != nil {
			return nil, err
		}
		if err := persistence.EnsureLaneSchema(db); err != nil {
			return nil, err
		}
		logger.GetLogger().Info("Using PostgreSQL lane store")
		return persistence.NewPostgresLaneStore(db), nil
	default:
		path := lanesCfg.FilePath
		if path == "" {
			path = "lanes.json"
		}
		logger.GetLogger().WithField("path", path).Info("Using file lane store")
		return persistence.NewFileLaneStore(path), nil
	}
}
