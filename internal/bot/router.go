package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/ivklv/birthday-bot/internal/bot/handlers"
	"github.com/ivklv/birthday-bot/internal/state"
)

// Router dispatches commands, menu button presses, and state-aware updates.
// Menu buttons carry localized text, so they are registered as aliases
// pointing at the command they stand for.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]handlers.Handler
	aliases        map[string]string
	dispatcher     *Dispatcher
	defaultHandler handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		aliases:     make(map[string]string),
		dispatcher:  dispatcher,
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command.
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// RegisterAlias maps a menu button label to an already registered command.
func (r *Router) RegisterAlias(text, cmd string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[text] = cmd
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the fallback handler for unmatched text while idle.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route directs the incoming update to the appropriate handler. Commands and
// menu buttons win over the conversation, so /cancel works mid-dialog.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	text := strings.TrimSpace(c.Text())

	if strings.HasPrefix(text, "/") {
		if handler := r.getCommandHandler(text); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	if cmd := r.resolveAlias(text); cmd != "" {
		if handler := r.getCommandHandler(cmd); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	if handled, err := r.dispatchState(c); handled || err != nil {
		return err
	}

	if handler := r.getDefaultHandler(); handler != nil {
		return r.executeHandler(handler, c)
	}

	return nil
}

// dispatchState hands the update to the conversation handler for the chat's
// current state. It reports whether such a handler existed.
func (r *Router) dispatchState(c telebot.Context) (bool, error) {
	if r.dispatcher == nil || c == nil || c.Chat() == nil {
		return false, nil
	}

	currentState, err := r.dispatcher.currentState(c)
	if err != nil {
		return false, err
	}

	handler := r.dispatcher.getHandler(currentState)
	if handler == nil || currentState == state.StateIdle {
		return false, nil
	}

	return true, r.executeHandler(handler, c)
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

func (r *Router) resolveAlias(text string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aliases[text]
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	handler := r.commands[cmd]
	r.mu.RUnlock()
	return handler
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	handler := r.defaultHandler
	r.mu.RUnlock()
	return handler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
