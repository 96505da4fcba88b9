// Package bot wires the Telegram transport, router, and handlers together.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/ivklv/birthday-bot/internal/birthday"
	"github.com/ivklv/birthday-bot/internal/bot/handlers"
	errors "github.com/ivklv/birthday-bot/internal/errors"
	"github.com/ivklv/birthday-bot/internal/i18n"
	"github.com/ivklv/birthday-bot/internal/idempotency"
	"github.com/ivklv/birthday-bot/internal/middleware"
	"github.com/ivklv/birthday-bot/internal/state"
	"github.com/ivklv/birthday-bot/pkg/config"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot            *telebot.Bot
	log                *slog.Logger
	cfg                config.Config
	fsm                state.Machine
	svc                *birthday.Service
	tr                 i18n.Translator
	loc                *time.Location
	rateLimitMw        *middleware.RateLimitMiddleware
	router             *Router
	dispatcher         *Dispatcher
	errHandler         *errors.Handler
	idempotencyManager idempotency.Manager
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	fsm state.Machine,
	svc *birthday.Service,
	tr i18n.Translator,
	loc *time.Location,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	dispatcher := NewDispatcher(fsm, log)
	router := NewRouter(dispatcher, log)
	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:            tb,
		log:                log,
		cfg:                cfg,
		fsm:                fsm,
		svc:                svc,
		tr:                 tr,
		loc:                loc,
		rateLimitMw:        rateLimitMw,
		router:             router,
		dispatcher:         dispatcher,
		errHandler:         errHandler,
		idempotencyManager: idempotencyManager,
	}

	b.setupRouter()

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as
// the notifier and health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b.fsm, b.svc, b.tr, b.loc, b.log))
	b.router.RegisterCommand(CommandBirthday, handlers.NewBirthdayCommandHandler(b.fsm, b.svc, b.tr, b.log))
	b.router.RegisterCommand(CommandTime, handlers.NewTimeCommandHandler(b.fsm, b.svc, b.tr, b.log))
	b.router.RegisterCommand(CommandToday, handlers.NewTodayHandler(b.svc, b.tr, b.loc, b.log))
	b.router.RegisterCommand(CommandStop, handlers.NewStopHandler(b.fsm, b.svc, b.tr, b.log))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(b.fsm, b.tr, b.log))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(b.tr))

	// Main menu buttons carry localized labels.
	b.router.RegisterAlias(b.tr.T("menu.today"), CommandToday)
	b.router.RegisterAlias(b.tr.T("menu.birthday"), CommandBirthday)
	b.router.RegisterAlias(b.tr.T("menu.time"), CommandTime)
	b.router.RegisterAlias(b.tr.T("menu.stop"), CommandStop)

	b.dispatcher.RegisterStateHandler(state.StateAwaitingBirthdate, handlers.NewBirthdateHandler(b.fsm, b.tr, b.log))
	b.dispatcher.RegisterStateHandler(state.StateAwaitingHour, handlers.NewHourHandler(b.fsm, b.svc, b.tr, b.loc, b.log))
	b.dispatcher.RegisterStateHandler(state.StateAwaitingBirthdateUpdate, handlers.NewBirthdateUpdateHandler(b.fsm, b.svc, b.tr, b.log))
	b.dispatcher.RegisterStateHandler(state.StateAwaitingHourUpdate, handlers.NewHourUpdateHandler(b.fsm, b.svc, b.tr, b.log))

	b.router.SetDefault(handlers.NewHelpHandler(b.tr))
}
