// cmd/deal-bot/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"deal-intake/internal/bot"
	"deal-intake/internal/common/config"
	"deal-intake/internal/common/database"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/common/observability"
	"deal-intake/internal/notify"
	"deal-intake/internal/server"
	"deal-intake/internal/session"
	"deal-intake/internal/store"
	"deal-intake/internal/telegram"

	pd "deal-intake/internal/workers/deals/parse-delimited"
	pf "deal-intake/internal/workers/deals/parse-freetext"
	rm "deal-intake/internal/workers/deals/route-message"
	sd "deal-intake/internal/workers/deals/submit-deals"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting deal bot...",
		zap.String("environment", cfg.App.Environment),
		zap.String("sessionBackend", cfg.Session.Backend),
		zap.String("storeBackend", cfg.Store.Backend),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Redis (session backend only) ---
	var redisClient *redis.Client
	if cfg.Session.Backend == config.SessionBackendRedis {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()
		redisClient = rc.GetClient()
		zapLog.Info("Redis connected successfully")
	}

	sessions, locker, err := session.New(cfg.Session, redisClient)
	if err != nil {
		zapLog.Fatal("session store init failed", zap.Error(err))
	}

	// --- Record store ---
	deps := store.Deps{Logger: log}
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		if err := database.EnsureOffersTable(ctx, pg.DB, cfg.Database.Postgres.Table); err != nil {
			zapLog.Fatal("offers table setup failed", zap.Error(err))
		}
		deps.DB = pg.DB
		zapLog.Info("PostgreSQL connected successfully")
	case config.StoreBackendElasticsearch:
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := es.EnsureDealIndex(ctx, cfg.Database.Elasticsearch.Index); err != nil {
			zapLog.Fatal("deal index setup failed", zap.Error(err))
		}
		deps.Elasticsearch = es.Client
		zapLog.Info("Elasticsearch connected successfully")
	}

	records, err := store.New(cfg, deps)
	if err != nil {
		zapLog.Fatal("record store init failed", zap.Error(err))
	}

	notifier, err := notify.New(ctx, cfg.Notifications, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}

	tg := telegram.NewClientFromConfig(cfg.Telegram)
	if me, err := tg.GetMe(ctx); err != nil {
		zapLog.Warn("Telegram getMe failed, continuing", zap.Error(err))
	} else {
		zapLog.Info("Telegram bot identified", zap.String("username", me.Username))
	}

	// --- Pipeline workers ---
	router := rm.NewHandler(rm.NewRouter(nil), log)
	delimited := pd.NewHandler(&pd.Config{MaxDeals: cfg.Pipeline.MaxDeals}, log)
	freeText := pf.NewHandler(&pf.Config{
		GeoRegistryPath: cfg.Pipeline.GeoRegistryPath,
		MaxDeals:        cfg.Pipeline.MaxDeals,
	}, log)
	submitter := sd.NewHandler(&sd.Config{
		MinInterval: config.GetDuration(cfg.Store.MinInterval),
	}, records, log)

	dispatcher := bot.NewDispatcher(bot.ConfigFromPipeline(cfg.Pipeline), bot.Deps{
		Messenger:     tg,
		Sessions:      sessions,
		Locker:        locker,
		Router:        router,
		Delimited:     delimited,
		FreeText:      freeText,
		Submitter:     submitter,
		Notifier:      notifier,
		Observability: obs,
		Logger:        log,
	})
	zapLog.Info("Deal pipeline ready")

	srv := server.New(cfg, server.Deps{
		Dispatcher: dispatcher,
		Checks: map[string]server.Pinger{
			"session": sessions,
			"store":   records,
		},
		Logger: log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received, stopping server...", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}

	zapLog.Info("Deal bot stopped gracefully")
}
