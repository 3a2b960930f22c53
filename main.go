package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/doctorai-app/backend/internal/config"
	"github.com/doctorai-app/backend/internal/database"
	"github.com/doctorai-app/backend/internal/domain"
	"github.com/doctorai-app/backend/internal/logger"
	"github.com/doctorai-app/backend/internal/server"
	"github.com/doctorai-app/backend/internal/services"
	"github.com/doctorai-app/backend/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()

	aiService, err := services.NewAIService(cfg.AI)
	if err != nil {
		logger.Fatalf("Failed to create AI service: %v", err)
	}
	logger.Info("AI service initialized", "provider", cfg.AI.Provider)

	// The store is optional: without it the service still analyzes images,
	// and the store-backed endpoints report 503.
	var mongoDB *database.Mongo
	if cfg.Mongo.URI != "" {
		mongoDB, err = database.Connect(ctx, cfg.Mongo)
		if err != nil {
			logger.Fatalf("Failed to connect to mongodb: %v", err)
		}
		defer mongoDB.Close(ctx)
		logger.Info("document store connected", "database", cfg.Mongo.Database)
	} else {
		logger.Warn("MONGODB_URI not set, running without database")
	}

	var uploader domain.BlobUploader
	if cfg.Storage.Enabled() {
		uploader, err = storage.NewUploader(ctx, cfg.Storage)
		if err != nil {
			logger.Fatalf("Failed to create uploader: %v", err)
		}
		logger.Info("object storage connected", "bucket", cfg.Storage.Bucket)
	} else {
		logger.Info("object storage not configured, images stored inline")
	}

	deps := server.Dependencies{AI: aiService}
	if mongoDB != nil {
		deps.Records = services.NewRecordService(aiService, mongoDB.Records, uploader)
		deps.Chats = services.NewChatService(mongoDB.Chats)
	} else {
		deps.Records = services.NewRecordService(aiService, nil, uploader)
		deps.Chats = services.NewChatService(nil)
	}

	srv := server.New(deps)

	go func() {
		logger.Infof("Listening on :%s", cfg.Port)
		if err := srv.Listen(":" + cfg.Port); err != nil {
			logger.Fatalf("Server stopped with error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
