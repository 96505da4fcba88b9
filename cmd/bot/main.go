package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ivklv/birthday-bot/internal/birthday"
	"github.com/ivklv/birthday-bot/internal/bot"
	"github.com/ivklv/birthday-bot/internal/database"
	apperrors "github.com/ivklv/birthday-bot/internal/errors"
	"github.com/ivklv/birthday-bot/internal/health"
	"github.com/ivklv/birthday-bot/internal/i18n"
	"github.com/ivklv/birthday-bot/internal/idempotency"
	"github.com/ivklv/birthday-bot/internal/lifecycle"
	"github.com/ivklv/birthday-bot/internal/middleware"
	"github.com/ivklv/birthday-bot/internal/notifier"
	"github.com/ivklv/birthday-bot/internal/ratelimit"
	"github.com/ivklv/birthday-bot/internal/recordcache"
	"github.com/ivklv/birthday-bot/internal/repository"
	"github.com/ivklv/birthday-bot/internal/scheduler"
	"github.com/ivklv/birthday-bot/internal/state"
	"github.com/ivklv/birthday-bot/pkg/config"
	"github.com/ivklv/birthday-bot/pkg/graceful"
	"github.com/ivklv/birthday-bot/pkg/logger"
	"github.com/ivklv/birthday-bot/pkg/metrics"
	pkgredis "github.com/ivklv/birthday-bot/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	if err := logger.InitSentry(*cfg); err != nil {
		slog.Warn("sentry initialization failed", slog.Any("error", err))
	}

	log := logger.New(*cfg)
	log.Info("starting birthday bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("timezone", cfg.Scheduler.Timezone),
	)

	db, err := sql.Open("postgres", cfg.DB.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		return
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	// The database may still be coming up alongside us; retry the first ping.
	err = apperrors.WithRetry(ctx, func() error {
		if perr := db.PingContext(ctx); perr != nil {
			return apperrors.NewStorageError(perr)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		return
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		return
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			return
		}
	}

	var storage state.Storage
	if cfg.State.Backend == "redis" && redisClient != nil {
		storage = state.NewRedisStorage(redisClient, log, cfg.State.TTL)
	} else {
		storage = state.NewMemoryStorage()
	}
	fsm := state.NewMachine(storage, log, redisClient)

	repo := repository.NewBirthdayRepository(db, log)
	cache := recordcache.NewCache(redisClient)
	svc := birthday.NewService(repo, cache, log)

	i18nManager, err := i18n.LoadFromDir(cfg.I18n.Dir, cfg.I18n.DefaultLang)
	if err != nil {
		log.Error("failed to load message catalogs", slog.Any("error", err))
		return
	}
	tr := i18nManager.Translator(cfg.I18n.DefaultLang)

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Error("invalid scheduler timezone",
			slog.String("timezone", cfg.Scheduler.Timezone),
			slog.Any("error", err),
		)
		return
	}

	var idemManager idempotency.Manager
	if redisClient != nil {
		idemManager = idempotency.NewManager(idempotency.NewRedisStore(redisClient, log), log)
	}

	var rateLimitMw *middleware.RateLimitMiddleware
	var memoryLimiter *ratelimit.MemoryLimiter
	if cfg.RateLimit.Enabled {
		rules := ratelimit.NewRules(cfg.RateLimit)
		memoryLimiter = ratelimit.NewMemoryLimiter(log)

		var limiter ratelimit.Limiter = memoryLimiter
		if redisClient != nil {
			limiter = ratelimit.NewAdaptiveLimiter(
				ratelimit.NewRedisLimiter(redisClient, log),
				memoryLimiter,
				log,
			)
		}

		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, rules, log)
	}

	tgBot, err := bot.New(*cfg, log, fsm, svc, tr, loc, idemManager, rateLimitMw)
	if err != nil {
		log.Error("failed to initialize telegram bot", slog.Any("error", err))
		return
	}

	reminderNotifier := notifier.NewTelegramNotifier(tgBot.Telebot(), log, cfg.Scheduler.SendTimeout)
	reminders := scheduler.New(repo, reminderNotifier, tr, log, loc, cfg.Scheduler.Skew)
	go reminders.Run(ctx)

	stateCleaner := state.NewCleaner(storage, log, cfg.State.TTL, cfg.State.CleanupInterval)
	go stateCleaner.Run(ctx)

	if redisClient != nil {
		go ratelimit.NewCleaner(redisClient, memoryLimiter, log, 10*time.Minute).Run(ctx)
		go idempotency.NewCleaner(redisClient, log, time.Hour).Run(ctx)
	}

	go metrics.NewStateCollector(fsm).Run(ctx)

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))

	httpServer := newOpsServer(cfg.Server.Port, log, checker)
	server := graceful.NewServer(log, httpServer, cfg.Server.ShutdownTimeout)
	go func() {
		if serveErr := server.ListenAndServe(ctx); serveErr != nil {
			log.Error("ops server error", slog.Any("error", serveErr))
		}
	}()

	config.Watch(v, log, func(config.Config) {
		log.Info("configuration changed; transport settings apply after restart")
	})

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram-bot", func(context.Context) error {
		tgBot.Stop()
		return nil
	})
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	go tgBot.Start()
	log.Info("birthday bot started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	if cfg.Sentry.Enabled {
		sentry.Flush(2 * time.Second)
	}

	log.Info("birthday bot stopped")
}

// newOpsServer builds the internal HTTP server exposing health and metrics.
func newOpsServer(addr string, log *slog.Logger, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := checker.Check(ctx)

		w.Header().Set("Content-Type", "application/json")
		if !health.Healthy(results) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(results); err != nil {
			log.Error("failed to encode health response", slog.Any("error", err))
		}
	})

	mux.Handle("/metrics", promhttp.Handler())

	handler := logger.Middleware(middleware.New(log)(mux))

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
