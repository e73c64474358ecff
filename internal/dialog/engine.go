// Package dialog implements the session dialogue engine: the
// finite-state wizard collecting solve parameters, the settings and
// history views, and the submission coordinator tracking asynchronous
// job completion.
package dialog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ashureev/solvebot/internal/domain"
	"github.com/ashureev/solvebot/internal/i18n"
	"github.com/ashureev/solvebot/internal/solver"
	"github.com/ashureev/solvebot/internal/store"
	"github.com/ashureev/solvebot/internal/transport"
)

// Engine drives one dialogue per user. Foreground turns for a given
// user arrive sequentially from the poller; the only concurrent path
// is the background completion task, which works on an immutable
// snapshot and never touches a live Session.
type Engine struct {
	repo    store.Repository
	gateway solver.Gateway
	chat    transport.Sender
	texts   *i18n.Bundle
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*domain.Session

	background sync.WaitGroup
}

// NewEngine creates a dialogue engine.
func NewEngine(repo store.Repository, gateway solver.Gateway, chat transport.Sender, texts *i18n.Bundle, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:     repo,
		gateway:  gateway,
		chat:     chat,
		texts:    texts,
		logger:   logger,
		sessions: make(map[int64]*domain.Session),
	}
}

// Wait blocks until all in-flight background completion tasks have
// reached their terminal outcome. Used on shutdown and in tests.
func (e *Engine) Wait() {
	e.background.Wait()
}

// session returns the session for a user, creating one with settings
// read through from the store on first contact.
func (e *Engine) session(ctx context.Context, userID, chatID int64) *domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sess, ok := e.sessions[userID]; ok {
		if chatID != 0 {
			sess.ChatID = chatID
		}
		return sess
	}

	settings, err := e.repo.GetSettings(ctx, userID, domain.DefaultSettings())
	if err != nil {
		e.logger.Error("failed to load settings, using defaults", "user_id", userID, "error", err)
		settings = domain.DefaultSettings()
	}

	sess := &domain.Session{
		UserID:   userID,
		ChatID:   chatID,
		State:    domain.StateMenu,
		Settings: settings,
	}
	e.sessions[userID] = sess
	return sess
}

// HandleUpdate dispatches one inbound update. Edited messages are
// discarded so an edit of a prior message can never re-trigger a
// state transition.
func (e *Engine) HandleUpdate(ctx context.Context, update transport.Update) {
	switch {
	case update.CallbackQuery != nil:
		e.handleCallback(ctx, update.CallbackQuery)
	case update.EditedMessage != nil:
		e.logger.Debug("ignoring edited message", "chat_id", update.EditedMessage.Chat.ID)
	case update.Message != nil:
		e.handleMessage(ctx, update.Message)
	}
}

func (e *Engine) handleMessage(ctx context.Context, msg *transport.Message) {
	if msg.From == nil {
		return
	}

	sess := e.session(ctx, msg.From.ID, msg.Chat.ID)
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/start":
		e.start(ctx, sess)
		return
	case text == "/cancel":
		e.cancel(ctx, sess, msg)
		return
	}

	switch sess.State {
	case domain.StateEquation:
		e.handleEquation(ctx, sess, text)
	case domain.StateInitialX:
		e.handleInitialX(ctx, sess, text)
	case domain.StateInitialY:
		e.handleInitialY(ctx, sess, text)
	case domain.StateReachPoint:
		e.handleReachPoint(ctx, sess, text)
	case domain.StateStepSize:
		e.handleStepSize(ctx, sess, text)
	default:
		// Free text in the menu is not part of any flow.
		e.logger.Debug("ignoring text outside wizard", "user_id", sess.UserID)
	}
}

// start refreshes settings from the store, abandons any wizard in
// progress and shows the main menu.
func (e *Engine) start(ctx context.Context, sess *domain.Session) {
	settings, err := e.repo.GetSettings(ctx, sess.UserID, domain.DefaultSettings())
	if err != nil {
		e.logger.Error("failed to refresh settings", "user_id", sess.UserID, "error", err)
	} else {
		sess.Settings = settings
	}

	if err := e.repo.PutSettings(ctx, sess.UserID, sess.Settings); err != nil {
		e.logger.Error("settings write-through failed", "user_id", sess.UserID, "error", err)
	}

	if sess.InWizard() {
		e.logger.Info("user canceled solving via start", "user_id", sess.UserID, "state", sess.State.String())
		sess.ResetScratch()
	}

	lang := sess.Settings.Language
	if _, err := e.chat.SendText(ctx, sess.ChatID, e.texts.T(lang, "start"), e.mainMenuKeyboard(lang)); err != nil {
		e.logger.Error("failed to send menu", "user_id", sess.UserID, "error", err)
	}
}

// showMenu renders the main menu into an existing message, used when
// the user navigates back via a button instead of /start.
func (e *Engine) showMenu(ctx context.Context, sess *domain.Session, msg *transport.Message) {
	lang := sess.Settings.Language
	e.edit(ctx, sess, msg, e.texts.T(lang, "start"), e.mainMenuKeyboard(lang))
}

// cancel discards wizard scratch state. Outside the wizard it is a
// no-op: the command message is silently removed.
func (e *Engine) cancel(ctx context.Context, sess *domain.Session, msg *transport.Message) {
	if !sess.InWizard() {
		if err := e.chat.DeleteMessage(ctx, sess.ChatID, msg.MessageID); err != nil {
			e.logger.Debug("failed to delete cancel message", "user_id", sess.UserID, "error", err)
		}
		return
	}

	e.logger.Info("user canceled solving", "user_id", sess.UserID, "state", sess.State.String())
	sess.ResetScratch()

	lang := sess.Settings.Language
	if _, err := e.chat.SendText(ctx, sess.ChatID, e.texts.T(lang, "cancel"), e.solutionKeyboard(lang)); err != nil {
		e.logger.Error("failed to send cancel confirmation", "user_id", sess.UserID, "error", err)
	}
}

// reply sends a plain message to the session chat, logging delivery
// failures.
func (e *Engine) reply(ctx context.Context, sess *domain.Session, text string) {
	if _, err := e.chat.SendText(ctx, sess.ChatID, text, nil); err != nil {
		e.logger.Error("failed to send message", "user_id", sess.UserID, "error", err)
	}
}

// edit replaces a prior bot message in place, falling back to a new
// message when the original is unavailable.
func (e *Engine) edit(ctx context.Context, sess *domain.Session, msg *transport.Message, text string, keyboard transport.Keyboard) {
	if msg == nil || msg.Text == "" {
		if _, err := e.chat.SendText(ctx, sess.ChatID, text, keyboard); err != nil {
			e.logger.Error("failed to send view", "user_id", sess.UserID, "error", err)
		}
		return
	}
	if err := e.chat.EditText(ctx, sess.ChatID, msg.MessageID, text, keyboard); err != nil {
		e.logger.Error("failed to edit view", "user_id", sess.UserID, "error", err)
	}
}

// prompt sends the localized prompt for the next wizard step, with
// the hint suffix when hints are enabled.
func (e *Engine) prompt(ctx context.Context, sess *domain.Session, key, hintKey string) {
	text := e.texts.Prompt(sess.Settings.Language, key, hintKey, sess.Settings.HintsEnabled())
	e.reply(ctx, sess, text)
}

func (e *Engine) mainMenuKeyboard(lang string) transport.Keyboard {
	return transport.Keyboard{
		transport.Row(
			transport.Button{Text: e.texts.T(lang, "solve"), Data: "solve"},
			transport.Button{Text: e.texts.T(lang, "settings"), Data: "settings"},
		),
		transport.Row(
			transport.Button{Text: e.texts.T(lang, "solve_history"), Data: "solve_history"},
		),
	}
}

func (e *Engine) solutionKeyboard(lang string) transport.Keyboard {
	return transport.Keyboard{
		transport.Row(transport.Button{Text: e.texts.T(lang, "solve_over"), Data: "solve"}),
		transport.Row(transport.Button{Text: e.texts.T(lang, "menu"), Data: "menu"}),
	}
}

func (e *Engine) backKeyboard(lang, data string) transport.Keyboard {
	return transport.Keyboard{
		transport.Row(transport.Button{Text: e.texts.T(lang, "back"), Data: data}),
	}
}
