package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"export-tracking-service/api"
	"export-tracking-service/config"
	"export-tracking-service/core"
	"export-tracking-service/tracking/geocoding"
	"export-tracking-service/tracking/geocoding/nominatim"
	"export-tracking-service/tracking/geocoding/osrm"
	"export-tracking-service/tracking/repositories"
	"export-tracking-service/tracking/services"
	"export-tracking-service/workers/delivery"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.LoadConfig()
	logger, err := core.NewLogger(*cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	repo, err := openRepository(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer repo.Close()

	planner := newPlanner(cfg, logger)

	svc := api.Services{
		Sessions:  services.NewSessionService(repo, logger),
		Producers: services.NewProducerService(repo, logger),
		Batches:   services.NewBatchService(repo, repo, planner, cfg.PublicBaseURL, logger),
		Products:  services.NewProductService(repo, planner, cfg.Delivery.ThresholdKm, logger),
		Dashboard: services.NewDashboardService(repo, repo),
	}

	orchestrator := core.NewOrchestrator(logger, []core.Worker{
		delivery.NewWorker(logger, svc.Products, cfg.Delivery.Schedule),
	})

	c, err := orchestrator.Start()
	if err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewRouter(svc, logger, api.Options{MetricsEnabled: cfg.MetricsEnabled}),
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for termination signal to exit gracefully
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	// Let a running delivery check finish before closing storage
	<-c.Stop().Done()
	orchestrator.Wait()
}

func openRepository(cfg *config.Config, logger *zap.Logger) (repositories.Repository, error) {
	if cfg.StorageDriver == config.StoragePostgres {
		db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		repo := repositories.NewGormRepository(db)
		if err := repo.Migrate(); err != nil {
			return nil, err
		}
		return repo, nil
	}
	repo, err := repositories.OpenBadger(cfg.BadgerPath, logger)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func newPlanner(cfg *config.Config, logger *zap.Logger) *geocoding.Planner {
	var geocoder geocoding.Geocoder = nominatim.NewClient(nominatim.Config{
		BaseURI:   cfg.Nominatim.BaseUri,
		UserAgent: cfg.Nominatim.UserAgent,
		Timeout:   cfg.Nominatim.Timeout,
	}, logger)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		geocoder = geocoding.NewCachedGeocoder(geocoder, client, cfg.Redis.TTL, logger)
	}

	router := osrm.NewClient(osrm.Config{
		BaseURI: cfg.OSRM.BaseUri,
		Timeout: cfg.OSRM.Timeout,
	}, logger)

	return geocoding.NewPlanner(geocoder, router, logger)
}
