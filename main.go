package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/aptwatcher/config"
	"sjsage522/aptwatcher/helpers"
	"sjsage522/aptwatcher/internal/crawler"
	"sjsage522/aptwatcher/logger"
	"sjsage522/aptwatcher/services/cache"
	"sjsage522/aptwatcher/services/notifier"
	"sjsage522/aptwatcher/services/publisher"
	"sjsage522/aptwatcher/services/store"
	"sjsage522/aptwatcher/services/worker"

	"github.com/joho/godotenv"
)

// fetchBlockKey marks the listing site as rate limiting us
const fetchBlockKey = "aptwatcher_fetch_blocked"

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// The configuration may come from a YAML file, so re-initialize the
	// logger for the configured environment
	logger.InitForEnvironment(cfg.Environment)
	log = logger.Default

	log.Info().
		Str("environment", cfg.Environment).
		Str("state_file", cfg.StateFile).
		Str("smtp", cfg.SMTPAddr()).
		Dur("check_interval", cfg.CheckInterval()).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	w := worker.NewWorker(
		services.Crawler,
		services.Store,
		services.Notifier,
		services.Publisher,
		helpers.NewLogger(cfg.ErrorLogFile),
		worker.Settings{
			MinSqFeet: cfg.MinSqFeet,
			Interval:  cfg.CheckInterval(),
			Window:    worker.Window{Start: cfg.WindowStartHour, End: cfg.WindowEndHour},
		},
	)

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting listing worker")
		workerDone <- w.Start(ctx)
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Crawler   crawler.Crawler
	Store     store.Store
	Notifier  notifier.Notifier
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices builds every component from the configuration.
// Memcache and Redis are optional; without them the fetch block lives in
// process memory and no events are published.
func initializeServices(ctx context.Context, cfg config.Config) (*Services, error) {
	services := &Services{}

	client, err := helpers.NewHTTPClient(cfg.RequestTimeout(), cfg.CACertPath)
	if err != nil {
		return nil, err
	}

	var cacheSvc cache.CacheService = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable, using in-process cache")
		} else {
			cacheSvc = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	services.Crawler = crawler.NewListingCrawler(crawler.CrawlerConfig{
		URL:       cfg.ListingURL,
		Headers:   cfg.Headers(),
		Client:    client,
		CacheKey:  fetchBlockKey,
		BlockTime: cfg.FetchBlockTime(),
		Selectors: crawler.DefaultSelectors(),
	}, cacheSvc)

	services.Store = store.NewFileStore(cfg.StateFile)

	mailer, err := notifier.NewSMTPMailer(cfg.SMTPAddr())
	if err != nil {
		return nil, err
	}
	services.Notifier = notifier.NewSMSNotifier(
		mailer,
		cfg.SenderEmail,
		cfg.SenderPasswordFile,
		cfg.Recipients,
	)

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, events will be retried each cycle")
		}
		services.Publisher = redisPublisher

		logger.Info("Publishing new listings to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services, nil
}
