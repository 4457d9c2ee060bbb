package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexportal/config"
	"lexportal/handlers"
	"lexportal/logger"
	"lexportal/repository"
	"lexportal/service"
	"lexportal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Error("server failed", zap.Error(err))
		zlog.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := repository.NewClient(cfg.API.PersistenceURL,
		repository.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		repository.WithRetryPolicy(repository.RetryPolicy{
			MaxRetries:     cfg.API.Retries(),
			InitialBackoff: cfg.API.RetryBackoff,
			MaxBackoff:     10 * cfg.API.RetryBackoff,
		}),
		repository.WithLogger(zlog))
	ai := service.NewAIClient(repository.NewClient(cfg.API.AIURL,
		repository.WithHTTPClient(&http.Client{Timeout: cfg.API.AITimeout}),
		repository.WithLogger(zlog)))

	workflow := &service.Workflow{
		Analyses:          repository.NewCaseAnalysisRepository(store, zlog),
		Digests:           repository.NewCaseDigestRepository(store, zlog),
		Cases:             repository.NewCaseRepository(store),
		AnalysisGenerator: ai,
		DigestGenerator:   ai,
		Logger:            zlog,
		PersistTimeout:    cfg.Workflow.PersistTimeout,
		Persists:          &service.PersistGroup{},
	}

	if cfg.Generator.Backend == "gemini" {
		client, err := initGemini(ctx, cfg.Generator.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		defer client.Close()
		workflow.AnalysisGenerator = service.NewGeminiGenerator(client, cfg.Generator.GeminiModel, zlog)
		zlog.Info("Gemini analysis generator enabled", zap.String("model", cfg.Generator.GeminiModel))
	}

	var runHandler *handlers.RunHandler
	if cfg.Database.URL != "" {
		db, err := initPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		defer db.Close()

		runs := repository.NewWorkflowRunRepository(db)
		if _, err := service.PruneRuns(ctx, runs, cfg.Workflow.RunRetention, time.Now(), zlog); err != nil {
			zlog.Warn("run ledger pruning failed", zap.Error(err))
		}

		recorder := service.NewLedgerRecorder(runs, zlog, 0)
		defer recorder.Close()
		workflow.Recorder = recorder
		runHandler = handlers.NewRunHandler(runs, zlog)
		zlog.Info("workflow run ledger enabled")
	}

	exports, err := storage.NewStorage(ctx, cfg.Storage.Backend())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	zlog.Info("storage initialized", zap.String("type", cfg.Storage.Type))

	views := service.NewViewRegistry(cfg.Workflow.ViewCapacity)
	defer views.CloseAll()

	// runs before the recorder and database are closed
	defer func() {
		waitCtx, cancel := context.WithTimeout(context.Background(), cfg.Workflow.PersistTimeout)
		defer cancel()
		if err := workflow.Persists.Wait(waitCtx); err != nil {
			zlog.Warn("shutdown before every generated record was saved", zap.Error(err))
		}
	}()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	cases := handlers.NewCaseHandler(workflow, views, service.NewChatService(ai), zlog)
	router := handlers.NewRouter(handlers.RouterConfig{
		Cases:          cases,
		Exports:        handlers.NewExportHandler(cases, exports, zlog),
		Runs:           runHandler,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         zlog,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Workflow.PersistTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func initGemini(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, option.WithAPIKey(apiKey))
}
