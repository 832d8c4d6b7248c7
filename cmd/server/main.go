package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/huddleup/gamification-engine/internal/api/engine"
	"github.com/huddleup/gamification-engine/internal/cache"
	"github.com/huddleup/gamification-engine/internal/config"
	"github.com/huddleup/gamification-engine/internal/notifications"
	"github.com/huddleup/gamification-engine/internal/repository"
	"github.com/huddleup/gamification-engine/internal/service/activity"
	"github.com/huddleup/gamification-engine/internal/service/badges"
	"github.com/huddleup/gamification-engine/internal/service/leaderboard"
	"github.com/huddleup/gamification-engine/internal/service/points"
	"github.com/huddleup/gamification-engine/internal/service/rewards"
	"github.com/huddleup/gamification-engine/internal/service/scheduler"
	"github.com/huddleup/gamification-engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting gamification engine")

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	userRepo := repository.NewUserRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	rewardRepo := repository.NewRewardRepository(db)

	dedupe := notifications.NewDedupeCache(time.Duration(cfg.Notifications.DedupeTTL) * time.Second)
	notifier := notifications.NewClient(&cfg.Notifications, dedupe, log.WithComponent("notifications"))

	pointsService := points.NewService(pointsRepo, log.WithComponent("points"))
	badgeService := badges.NewService(badgeRepo, activityRepo, userRepo, notifier, log.WithComponent("badges"))
	activityRouter := activity.NewRouter(pointsService, badgeService, log.WithComponent("activity"))
	leaderboardService := leaderboard.NewService(
		userRepo,
		badgeRepo,
		activityRepo,
		redisCache,
		time.Duration(cfg.Leaderboard.CacheTTL)*time.Second,
		log.WithComponent("leaderboard"),
	)
	rewardsService := rewards.NewService(rewardRepo, notifier, log.WithComponent("rewards"))

	sched := scheduler.NewService(cfg, badgeService, dedupe, log.WithComponent("scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer sched.Stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if cfg.Metrics.Prometheus.Enabled {
		path := cfg.Metrics.Prometheus.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.Handler()))
	}

	handler := engine.NewHandler(activityRouter, pointsService, badgeService, leaderboardService, rewardsService, log)
	handler.RegisterRoutes(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
