package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/config"
	"github.com/suar-net/foodscan-be/internal/database"
	"github.com/suar-net/foodscan-be/internal/handler"
	"github.com/suar-net/foodscan-be/internal/logger"
	"github.com/suar-net/foodscan-be/internal/repository"
	"github.com/suar-net/foodscan-be/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	if cfg.Model.APIKey == "" {
		zapLogger.Warn("OPENAI_API_KEY is not set, analysis requests will fail")
	}

	deps := handler.Dependencies{
		Config: cfg,
		Logger: zapLogger,
	}

	if cfg.DB.Enabled() {
		db, dialect, err := database.ConnectDB(cfg.DB)
		if err != nil {
			zapLogger.Fatal("failed to connect to history database", zap.Error(err))
		}
		defer db.Close()
		zapLogger.Info("analysis history enabled", zap.String("driver", string(dialect)))

		repo := repository.NewRepository(db, dialect)
		deps.DB = db
		deps.History = repo.Analysis()
	}

	chatClient, err := service.NewChatClient(cfg.Model)
	if err != nil {
		zapLogger.Fatal("failed to create model client", zap.Error(err))
	}
	deps.Analyzer = service.NewNutritionService(chatClient, cfg.Model, zapLogger)

	if cfg.Auth.Enabled() {
		deps.Tokens = service.NewTokenService(cfg.Auth)
		zapLogger.Info("bearer token authentication enabled")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.SetupRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zapLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("cannot run server", zap.String("port", cfg.Server.Port), zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLogger.Info("shutting down the server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
		return
	}
	zapLogger.Info("server successfully shut down")
}
