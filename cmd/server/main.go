package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/grenier-labs/marketplace/internal/adapter/messaging/nats"
	"github.com/grenier-labs/marketplace/internal/adapter/repository/cache"
	"github.com/grenier-labs/marketplace/internal/adapter/repository/mongodb"
	"github.com/grenier-labs/marketplace/internal/adapter/storage/s3"
	"github.com/grenier-labs/marketplace/internal/config"
	"github.com/grenier-labs/marketplace/internal/handler"
	listingUC "github.com/grenier-labs/marketplace/internal/listing/usecase"
	"github.com/grenier-labs/marketplace/internal/middleware"
	"github.com/grenier-labs/marketplace/internal/platform/tracer"
	"github.com/grenier-labs/marketplace/internal/router"
	userUC "github.com/grenier-labs/marketplace/internal/user/usecase"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		tp, err := tracer.Init(ctx, cfg.OTLPEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to shut down tracer", zap.Error(err))
			}
		}()
	}

	// MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())
	if err := mongoClient.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	db := mongoClient.Database(cfg.MongoDB)

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// MinIO media storage
	storage, err := s3.NewS3Storage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize media storage", zap.Error(err))
	}

	// NATS
	publisher, err := nats.NewPublisher(cfg.NATSURL)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories and cache
	listingRepo := mongodb.NewListingRepository(db)
	userRepo := mongodb.NewUserRepository(db, logger)
	listingCache := cache.NewListingCache(redisClient)

	// Usecases
	offerFolder := cfg.MediaNamespace + "/offers"
	avatarFolder := cfg.MediaNamespace + "/profile_pictures"
	publishUsecase := listingUC.NewPublishUsecase(listingRepo, storage, publisher, offerFolder, logger)
	modifyUsecase := listingUC.NewModifyUsecase(listingRepo, storage, listingCache, offerFolder, logger)
	deleteUsecase := listingUC.NewDeleteUsecase(listingRepo, storage, listingCache, publisher, logger)
	searchUsecase := listingUC.NewSearchUsecase(listingRepo, listingCache, userRepo, logger)
	userUsecase := userUC.NewUserUsecase(userRepo, storage, publisher, avatarFolder, cfg.JWTSecret, logger)

	// HTTP surface
	offerHandler := handler.NewOfferHandler(publishUsecase, modifyUsecase, deleteUsecase, searchUsecase, logger)
	userHandler := handler.NewUserHandler(userUsecase, logger)
	authMW := middleware.Auth(userUsecase, logger, handler.RespondError)

	mux := chi.NewRouter()
	mux.Use(middleware.Logger(logger))
	mux.Use(middleware.Tracing())
	router.SetupOfferRoutes(mux, offerHandler, authMW)
	router.SetupUserRoutes(mux, userHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
