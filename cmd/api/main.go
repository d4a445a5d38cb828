package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bore13/Ai-data-chat/internal/application"
	appanalysis "github.com/bore13/Ai-data-chat/internal/application/analysis"
	appchat "github.com/bore13/Ai-data-chat/internal/application/chat"
	appdatasets "github.com/bore13/Ai-data-chat/internal/application/datasets"
	"github.com/bore13/Ai-data-chat/internal/config"
	domanalysis "github.com/bore13/Ai-data-chat/internal/domain/analysis"
	domchat "github.com/bore13/Ai-data-chat/internal/domain/chat"
	domdataset "github.com/bore13/Ai-data-chat/internal/domain/dataset"
	"github.com/bore13/Ai-data-chat/internal/infra/ai/openai"
	"github.com/bore13/Ai-data-chat/internal/infra/crypto"
	"github.com/bore13/Ai-data-chat/internal/infra/db/memory"
	mysqlp "github.com/bore13/Ai-data-chat/internal/infra/db/mysql"
	"github.com/bore13/Ai-data-chat/internal/infra/db/postgres"
	"github.com/bore13/Ai-data-chat/internal/infra/httpserver"
	minioStore "github.com/bore13/Ai-data-chat/internal/infra/storage"
	"github.com/bore13/Ai-data-chat/internal/middleware"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv: %v", err)
	}

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := newLogger(cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	health := map[string]middleware.HealthChecker{}

	// init repos
	datasets, messages, db, err := openRepositories(ctx, cfg)
	if err != nil {
		logger.Fatal("database init error", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		health["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	datasetsSvc := &appdatasets.Service{
		Repo:  datasets,
		Clock: application.SystemClock{},
		Log:   logger.Named("datasets"),
	}

	// init minio
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		datasetsSvc.Archive = store
	}

	// init model client; without a key analysis reports "not configured"
	var model domanalysis.ModelClient
	if cfg.OpenAI.APIKey != "" {
		model = openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			BaseURL:     cfg.OpenAI.BaseURL,
			Temperature: *cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		})
	} else {
		logger.Warn("OPENAI_API_KEY not set, analysis disabled")
	}

	analysis := appanalysis.NewService(datasets, model, appanalysis.Config{APIKey: cfg.OpenAI.APIKey}, logger.Named("analysis"))
	analysis.OnTransition(recordTransition)

	codec := crypto.NewCodec(logger.Named("crypto"))
	codec.Iterations = cfg.Crypto.Iterations

	chatSvc := &appchat.Service{
		Repo:     messages,
		Analysis: analysis,
		Codec:    codec,
		Clock:    application.SystemClock{},
		Log:      logger.Named("chat"),
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate)
	defer limiter.Stop()

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(chatSvc, datasetsSvc, httpserver.Options{
		APIKeys:        cfg.Server.APIKeys,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Limiter:        limiter,
		Health:         health,
		Log:            logger.Named("http"),
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", zap.String("addr", addr), zap.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openRepositories connects and migrates the configured driver.
// db is nil for the in-memory driver.
func openRepositories(ctx context.Context, cfg *config.Config) (domdataset.Repository, domchat.Repository, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return postgres.NewDatasetRepository(db), postgres.NewChatRepository(db), db, nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return mysqlp.NewDatasetRepository(db), mysqlp.NewChatRepository(db), db, nil
	default:
		return memory.NewDatasetRepository(), memory.NewChatRepository(), nil, nil
	}
}

// recordTransition feeds analysis state changes into the /metrics counters.
func recordTransition(t appanalysis.Transition) {
	switch {
	case t.From == appanalysis.StateIdle:
		middleware.IncrementAnalyses()
		if t.To == appanalysis.StateAwaitingModel {
			middleware.IncrementAnalysesRunning()
		}
	case t.From == appanalysis.StateAwaitingModel:
		middleware.DecrementAnalysesRunning()
	}
	if t.Outcome == appanalysis.OutcomeFailure {
		middleware.IncrementAnalysesFailed()
	}
}
