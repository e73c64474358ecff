package dialog

import (
	"context"
	"slices"
	"strings"

	"github.com/ashureev/solvebot/internal/domain"
	"github.com/ashureev/solvebot/internal/transport"
)

// languageNames shows each language in itself, matching what its
// speakers expect to scan for.
var languageNames = []struct {
	code string
	name string
}{
	{"en", "English"},
	{"ru", "Русский"},
	{"zh", "中文"},
}

// handleCallback routes inline keyboard presses. Every settings
// mutation writes through to the store before the view re-renders.
func (e *Engine) handleCallback(ctx context.Context, cb *transport.CallbackQuery) {
	if err := e.chat.AnswerCallback(ctx, cb.ID); err != nil {
		e.logger.Debug("failed to answer callback", "error", err)
	}

	var chatID int64
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}
	sess := e.session(ctx, cb.From.ID, chatID)
	if sess.InWizard() {
		// Buttons on stale keyboards stay inert while parameter
		// collection is in progress. Only /cancel or /start leaves
		// the wizard.
		e.logger.Debug("dropping callback during wizard",
			"user_id", sess.UserID, "state", sess.State.String(), "data", cb.Data)
		return
	}

	data := cb.Data
	switch {
	case data == "solve":
		e.beginSolve(ctx, sess, cb.Message)
	case data == "settings" || data == "settings_back":
		e.showSettings(ctx, sess, cb.Message)
	case data == "settings_method":
		e.showMethodMenu(ctx, sess, cb.Message)
	case data == "settings_rounding":
		e.showRoundingMenu(ctx, sess, cb.Message)
	case data == "settings_language":
		e.showLanguageMenu(ctx, sess, cb.Message)
	case slices.Contains(domain.Methods, data):
		sess.Settings.Method = data
		e.writeThrough(ctx, sess)
		e.showMethodMenu(ctx, sess, cb.Message)
	case slices.Contains(domain.Roundings, data):
		sess.Settings.Rounding = data
		e.writeThrough(ctx, sess)
		e.showRoundingMenu(ctx, sess, cb.Message)
	case slices.Contains(domain.Languages, data):
		sess.Settings.Language = data
		e.writeThrough(ctx, sess)
		e.showLanguageMenu(ctx, sess, cb.Message)
	case data == "true" || data == "false":
		// The hints button carries the current value; pressing it
		// flips the switch.
		if sess.Settings.HintsEnabled() {
			sess.Settings.Hints = "false"
		} else {
			sess.Settings.Hints = "true"
		}
		e.writeThrough(ctx, sess)
		e.showSettings(ctx, sess, cb.Message)
	case data == "solve_history" || data == "solve_history_back":
		e.showHistory(ctx, sess, cb.Message)
	case strings.HasPrefix(data, "application_"):
		e.showHistoryDetail(ctx, sess, cb.Message, data)
	case data == "back" || data == "menu":
		e.showMenu(ctx, sess, cb.Message)
	default:
		e.logger.Debug("unknown callback", "user_id", sess.UserID, "data", data)
	}
}

func (e *Engine) writeThrough(ctx context.Context, sess *domain.Session) {
	if err := e.repo.PutSettings(ctx, sess.UserID, sess.Settings); err != nil {
		e.logger.Error("settings write-through failed", "user_id", sess.UserID, "error", err)
	}
}

func (e *Engine) showSettings(ctx context.Context, sess *domain.Session, msg *transport.Message) {
	lang := sess.Settings.Language

	hintsLabel := e.texts.T(lang, "hints_switch") + " " + e.texts.T(lang, "hints_switch_off")
	if sess.Settings.HintsEnabled() {
		hintsLabel = e.texts.T(lang, "hints_switch") + " " + e.texts.T(lang, "hints_switch_on")
	}

	keyboard := transport.Keyboard{
		transport.Row(transport.Button{Text: e.texts.T(lang, "change_method"), Data: "settings_method"}),
		transport.Row(transport.Button{Text: e.texts.T(lang, "change_rounding"), Data: "settings_rounding"}),
		transport.Row(transport.Button{Text: e.texts.T(lang, "change_language"), Data: "settings_language"}),
		transport.Row(transport.Button{Text: hintsLabel, Data: sess.Settings.Hints}),
		transport.Row(transport.Button{Text: e.texts.T(lang, "back"), Data: "back"}),
	}

	e.edit(ctx, sess, msg, e.texts.T(lang, "settings_menu"), keyboard)
}

// marked decorates the currently selected option.
func marked(text string, selected bool) string {
	if selected {
		return "→ " + text + " ←"
	}
	return text
}

func (e *Engine) showMethodMenu(ctx context.Context, sess *domain.Session, msg *transport.Message) {
	lang := sess.Settings.Language

	var keyboard transport.Keyboard
	for _, method := range domain.Methods {
		label := marked(e.texts.Method(lang, method), sess.Settings.Method == method)
		keyboard = append(keyboard, transport.Row(transport.Button{Text: label, Data: method}))
	}
	keyboard = append(keyboard, transport.Row(transport.Button{Text: e.texts.T(lang, "back"), Data: "settings_back"}))

	e.edit(ctx, sess, msg, e.texts.T(lang, "settings_menu"), keyboard)
}

func (e *Engine) showRoundingMenu(ctx context.Context, sess *domain.Session, msg *transport.Message) {
	lang := sess.Settings.Language

	var row []transport.Button
	for _, rounding := range domain.Roundings[:len(domain.Roundings)-1] {
		row = append(row, transport.Button{
			Text: marked(rounding, sess.Settings.Rounding == rounding),
			Data: rounding,
		})
	}

	keyboard := transport.Keyboard{
		row,
		transport.Row(transport.Button{
			Text: marked(e.texts.T(lang, "without_rounding"), sess.Settings.Rounding == "16"),
			Data: "16",
		}),
		transport.Row(transport.Button{Text: e.texts.T(lang, "back"), Data: "settings_back"}),
	}

	e.edit(ctx, sess, msg, e.texts.T(lang, "settings_menu"), keyboard)
}

func (e *Engine) showLanguageMenu(ctx context.Context, sess *domain.Session, msg *transport.Message) {
	lang := sess.Settings.Language

	var keyboard transport.Keyboard
	for _, entry := range languageNames {
		keyboard = append(keyboard, transport.Row(transport.Button{
			Text: marked(entry.name, lang == entry.code),
			Data: entry.code,
		}))
	}
	keyboard = append(keyboard, transport.Row(transport.Button{Text: e.texts.T(lang, "back"), Data: "settings_back"}))

	e.edit(ctx, sess, msg, e.texts.T(lang, "settings_menu"), keyboard)
}
