package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coworking/internal/api"
	"coworking/internal/cache"
	"coworking/internal/catalog"
	"coworking/internal/config"
	"coworking/internal/database"
	"coworking/internal/events"
	"coworking/internal/google"
	"coworking/internal/metrics"
	"coworking/internal/notify"
	"coworking/internal/policy"
	"coworking/internal/repository"
	"coworking/internal/service"
	"coworking/internal/suggest"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type store interface {
	service.Store
	PingContext(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("COWORKING_CONFIG_PATH"))
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogs := catalog.NewHolder(loadCatalog(cfg, &logger))
	go func() {
		err := config.WatchCatalog(ctx, cfg.Catalog.Path, cfg.CatalogReloadInterval(), func(c *config.CatalogConfig) {
			catalogs.Replace(catalog.FromConfig(c))
			logger.Info().Int("types", len(c.Types)).Msg("catalog reloaded")
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("catalog watcher stopped")
		}
	}()

	var st store
	var db *database.DB
	switch cfg.Database.Driver {
	case config.DriverMemory:
		st = repository.NewMemoryStore()
	default:
		db, err = database.NewDB(cfg.Database.Path, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("open db error")
		}
		defer db.Close()
		st = db
	}

	pol := policy.New(policy.RealClock{Location: cfg.Location()}, cfg.Booking.MaxAdvanceDays).
		WithMaxDurationDays(cfg.Booking.MaxDurationDays)
	bus := events.NewEventBus(&logger)

	var rdb *redis.Client
	var snapshot *cache.SnapshotReader
	var finder *suggest.Finder
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		snapshot = cache.NewSnapshotReader(st, rdb, cfg.SnapshotTTL(), &logger)
		finder = suggest.NewFinder(repository.NewFailoverReader(snapshot, st, &logger), pol, &logger)
	}

	engine := service.NewEngine(st, catalogs, pol, finder, bus, &logger)
	if snapshot != nil {
		engine.UseSnapshotInvalidator(snapshot)
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.BotToken != "YOUR_BOT_TOKEN_HERE" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("create telegram client error")
		}
		notifier := notify.NewManagerNotifier(botAPI, cfg.Telegram.ManagerChatIDs, &logger)
		bus.Subscribe(events.ReservationAccepted, notifier.HandleEvent)
		notifier.StartDailyDigest(ctx, engine, cfg.Telegram.DigestHour)
	}

	if cfg.Google.SpreadsheetID != "" {
		sheets, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID, cfg.Google.SheetName, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("google sheets disabled")
		} else {
			if err := sheets.EnsureHeader(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to write sheet header")
			}
			bus.Subscribe(events.ReservationAccepted, sheets.HandleEvent)
		}
	}

	if db != nil && cfg.Backup.Enabled {
		go database.NewBackupService(db, cfg.Backup, &logger).Start(ctx)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, st, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(api.Options{
		Port:               cfg.HTTP.Port,
		APIKey:             cfg.HTTP.APIKey,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
	}, engine, &logger)

	logger.Info().Str("driver", cfg.Database.Driver).Msg("coworking booking service started")
	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("api server error")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Logging.JSON {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// loadCatalog reads catalog.yaml, falling back to the built-in pooled catalog.
func loadCatalog(cfg *config.Config, logger *zerolog.Logger) *catalog.Catalog {
	c, err := config.LoadCatalogConfig(cfg.Catalog.Path)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Catalog.Path).Msg("using default catalog")
		return catalog.Default()
	}
	return catalog.FromConfig(c)
}

func startHealthServer(ctx context.Context, port int, st store, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := st.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
