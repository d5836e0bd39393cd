package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/api/handlers"
	"github.com/cloo-solutions/mcqgen/internal/cache"
	"github.com/cloo-solutions/mcqgen/internal/config"
	"github.com/cloo-solutions/mcqgen/internal/database"
	"github.com/cloo-solutions/mcqgen/internal/generator"
	"github.com/cloo-solutions/mcqgen/internal/jobs"
	"github.com/cloo-solutions/mcqgen/internal/logger"
	"github.com/cloo-solutions/mcqgen/internal/nlp"
	"github.com/cloo-solutions/mcqgen/internal/openai"
	"github.com/cloo-solutions/mcqgen/internal/repository"
	"github.com/cloo-solutions/mcqgen/internal/server"
	"github.com/cloo-solutions/mcqgen/internal/service"
	"github.com/cloo-solutions/mcqgen/internal/storage"
	"github.com/cloo-solutions/mcqgen/internal/telemetry"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout    = 30 * time.Second
	embeddingCacheKeys = "mcqgen:emb:"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and generation worker",
		Long:  "Start the mcqgen API server on the configured port together with the background generation worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides MCQGEN_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Serve the API without running the generation worker")
	cmd.Flags().String("migrations", defaultMigrationsSource, "Migration source URL")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if portFlag, _ := cmd.Flags().GetString("port"); portFlag != "" {
		cfg.Port = portFlag
	}

	log, err := logger.New(cfg.LogMode, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate(),
		Debug:            cfg.Debug,
	}, log)
	if err != nil {
		log.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	if !cfg.HasOpenAI() {
		return errors.New("MCQGEN_OPENAI_API_KEY is required")
	}

	pipelineOpts, err := cfg.PipelineOptions()
	if err != nil {
		return fmt.Errorf("failed to load pipeline options: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		source, _ := cmd.Flags().GetString("migrations")
		if err := database.Migrate(cfg.DatabaseURL, source, log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	oa := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.OpenAIEmbeddingModel),
		EmbeddingDimensions: repository.EmbeddingDimensions,
		ChatModel:           cfg.OpenAIChatModel,
	})

	var embedder generator.Embedder = oa
	if cfg.HasRedis() {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		store := cache.NewRedisStore(redisClient, embeddingCacheKeys)
		embedder = cache.NewCachedEmbedder(oa, store, cfg.OpenAIEmbeddingModel, cfg.EmbeddingCacheTTL, log)
		log.Info("embedding cache enabled", zap.Duration("ttl", cfg.EmbeddingCacheTTL))
	}

	splitter, err := nlp.NewSentenceSplitter()
	if err != nil {
		return err
	}

	gen, err := generator.New(generator.Providers{
		Embedder:  embedder,
		Sentences: splitter,
		Entities:  oa,
		Questions: oa,
		Answers:   oa,
	}, pipelineOpts, log)
	if err != nil {
		return fmt.Errorf("failed to build generator: %w", err)
	}

	setRepo := repository.NewQuestionSetRepository(pool)
	itemRepo := repository.NewMCQItemRepository(pool)
	jobRepo := repository.NewGenerationJobRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var store service.ObjectStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Info("export bucket ready", zap.String("bucket", cfg.S3Bucket))
		store = s3Client
	}

	exportSvc := service.NewExportService(store, setRepo, log)
	var exporter service.Exporter
	if exportSvc.Enabled() {
		exporter = exportSvc
	}

	generationSvc := service.NewGenerationService(gen, txRunner, setRepo, itemRepo, exporter, log)
	searchSvc := service.NewSearchService(embedder, itemRepo)

	var worker *jobs.Worker
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	if noWorker, _ := cmd.Flags().GetBool("no-worker"); !noWorker {
		processor := jobs.NewGenerationWorker(jobRepo, generationSvc, log)
		worker = jobs.NewWorker(processor, cfg.WorkerPollInterval, log)
		go worker.Start(workerCtx)
	}

	router := server.NewRouter(server.RouterConfig{
		APIKey:             cfg.APIKey,
		Logger:             log,
		GenerateHandler:    handlers.NewGenerateHandler(generationSvc),
		QuestionSetHandler: handlers.NewQuestionSetHandler(generationSvc, exportSvc),
		SearchHandler:      handlers.NewSearchHandler(searchSvc),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("shutting down")

	if worker != nil {
		cancelWorker()
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
