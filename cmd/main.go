package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pairpad/collab-service/internal/config"
	"github.com/pairpad/collab-service/internal/domain"
	"github.com/pairpad/collab-service/internal/events"
	"github.com/pairpad/collab-service/internal/handler"
	"github.com/pairpad/collab-service/internal/hub"
	"github.com/pairpad/collab-service/internal/registry"
	"github.com/pairpad/collab-service/internal/repository"
	"github.com/pairpad/collab-service/internal/review"
	"github.com/pairpad/collab-service/internal/service"
	"github.com/pairpad/collab-service/pkg/database"
	pkglog "github.com/pairpad/collab-service/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "collab-service",
	})
	logger := pkglog.L()

	// Connect to database using GORM
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db, &domain.ProjectModel{}, &domain.MessageModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	projectRepo := repository.NewGormProjectRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Room registry: redis when configured, otherwise in-process only
	var reg registry.Registry = registry.NewNoopRegistry()
	if cfg.Redis.Enabled {
		advertise := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		redisReg, err := registry.NewRedisRegistry(cfg.Redis, advertise)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		reg = redisReg
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis registry connected")
	}
	defer reg.Close()

	// Room-event firehose: kafka when configured
	var producer events.EventProducer = events.NewNoopProducer()
	if cfg.Kafka.Enabled {
		kafkaProducer, err := events.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to kafka")
		}
		producer = kafkaProducer
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer connected")
	}

	oracle := review.NewOpenAIOracle(cfg.Review)

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	relaySvc := service.NewRelayService(wsHub, projectRepo, messageRepo, oracle, producer, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := relaySvc.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start relay service")
	}
	defer relaySvc.Stop()

	// Router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	handler.NewHTTPHandler(projectRepo).RegisterRoutes(r)
	handler.NewWSHandler(wsHub, relaySvc, cfg.WebSocket).RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("collab service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down collab service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("collab service stopped")
}
