package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/RubachokBoss/originality-bot/internal/config"
	"github.com/RubachokBoss/originality-bot/internal/delivery/bot"
	"github.com/RubachokBoss/originality-bot/internal/delivery/httpd"
	"github.com/RubachokBoss/originality-bot/internal/repository"
	"github.com/RubachokBoss/originality-bot/internal/service"
	"github.com/RubachokBoss/originality-bot/internal/service/checker"
	"github.com/RubachokBoss/originality-bot/internal/service/extract"
	"github.com/RubachokBoss/originality-bot/internal/service/integration"
	"github.com/RubachokBoss/originality-bot/internal/worker"
	"github.com/RubachokBoss/originality-bot/internal/worker/queue"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type App struct {
	server       *http.Server
	telegramBot  *bot.Bot
	scanWorker   worker.ScanWorker
	rabbitMQRepo repository.RabbitMQRepository
	logger       zerolog.Logger
	config       *config.Config
	db           *sql.DB

	cancelBot context.CancelFunc
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	submissionRepo := repository.NewSubmissionRepository(db, log)

	corpusChecker := checker.NewCorpusChecker(
		submissionRepo,
		checker.CorpusCheckerConfig{Threshold: cfg.Similarity.Threshold},
		log,
	)

	extractor := extract.NewDocxExtractor(log)

	var archiveRepo repository.ArchiveRepository
	if cfg.Archive.Enabled {
		var err error
		archiveRepo, err = repository.NewMinIOArchiveRepository(
			cfg.Archive.Endpoint,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.Bucket,
			cfg.Archive.Region,
			cfg.Archive.UseSSL,
			cfg.Archive.ConnectTimeout,
			log,
		)
		if err != nil {
			return nil, err
		}
	}

	var (
		rabbitMQRepo repository.RabbitMQRepository
		dispatcher   service.ScanDispatcher
		scanWorker   worker.ScanWorker
	)

	app := &App{
		logger: log,
		config: cfg,
		db:     db,
	}

	if cfg.Scanner.Enabled {
		var err error
		rabbitMQRepo, err = repository.NewRabbitMQRepository(cfg.RabbitMQ.URL, log)
		if err != nil {
			return nil, err
		}

		if err := rabbitMQRepo.SetupQueue(
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.QueueName,
			cfg.RabbitMQ.RoutingKey,
		); err != nil {
			return nil, err
		}

		publisher := queue.NewRabbitMQPublisher(rabbitMQRepo.Channel(), log)
		dispatcher = service.NewQueueDispatcher(publisher, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
	}

	submissionService := service.NewSubmissionService(
		submissionRepo,
		corpusChecker,
		archiveRepo,
		dispatcher,
		log,
		service.SubmissionConfig{
			ScanEnabled:    cfg.Scanner.Enabled,
			ArchiveEnabled: cfg.Archive.Enabled,
		},
	)

	telegramBot, err := bot.New(cfg.Telegram, submissionService, extractor, log)
	if err != nil {
		return nil, err
	}

	if cfg.Scanner.Enabled {
		scannerClient := integration.NewScannerClient(integration.ScannerConfig{
			Email:        cfg.Scanner.Email,
			APIKey:       cfg.Scanner.APIKey,
			IDBaseURL:    cfg.Scanner.IDBaseURL,
			APIBaseURL:   cfg.Scanner.APIBaseURL,
			PollInterval: cfg.Scanner.PollInterval,
			Sandbox:      cfg.Scanner.Sandbox,
		}, log)

		consumer := queue.NewRabbitMQConsumer(
			rabbitMQRepo.Channel(),
			cfg.RabbitMQ.QueueName,
			cfg.RabbitMQ.ConsumerTag,
			cfg.RabbitMQ.PrefetchCount,
			log,
		)

		workerPool := worker.NewWorkerPool(cfg.Worker.MaxWorkers, log)

		scanWorker = worker.NewScanWorker(
			workerPool,
			consumer,
			submissionRepo,
			scannerClient,
			telegramBot,
			log,
			worker.ScanWorkerConfig{
				Threshold:   cfg.Scanner.Threshold,
				ScanTimeout: cfg.Scanner.ScanTimeout,
			},
		)
	}

	handler := httpd.NewHandler(
		submissionService,
		telegramBot,
		cfg.Telegram.Token,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	app.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	app.telegramBot = telegramBot
	app.scanWorker = scanWorker
	app.rabbitMQRepo = rabbitMQRepo

	return app, nil
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelBot = cancel

	if a.scanWorker != nil {
		if err := a.scanWorker.Start(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to start scan worker")
			return err
		}
	}

	if err := a.telegramBot.SetWebhook(); err != nil {
		return err
	}

	go a.telegramBot.Run(ctx)

	a.logger.Info().Msgf("Starting originality bot on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down originality bot...")

	if a.cancelBot != nil {
		a.cancelBot()
	}

	if a.scanWorker != nil {
		if err := a.scanWorker.Stop(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop scan worker")
		}
	}

	if a.rabbitMQRepo != nil {
		if err := a.rabbitMQRepo.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
		return err
	}

	a.logger.Info().Msg("Originality bot stopped")
	return nil
}
