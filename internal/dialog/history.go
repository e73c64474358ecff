package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ashureev/solvebot/internal/domain"
	"github.com/ashureev/solvebot/internal/render"
	"github.com/ashureev/solvebot/internal/transport"
)

func (e *Engine) showHistory(ctx context.Context, sess *domain.Session, msg *transport.Message) {
	lang := sess.Settings.Language

	apps, err := e.repo.RecentApplications(ctx, sess.UserID)
	if err != nil {
		e.logger.Error("failed to load history", "user_id", sess.UserID, "error", err)
		apps = nil
	}

	var keyboard transport.Keyboard
	for i, app := range apps {
		entry := app.Entry()
		label := entry.Request.UserEquation
		if label == "" {
			label = fmt.Sprintf("#%d", entry.ID)
		}
		keyboard = append(keyboard, transport.Row(transport.Button{
			Text: label,
			Data: fmt.Sprintf("application_%d", i),
		}))
	}
	keyboard = append(keyboard, transport.Row(transport.Button{Text: e.texts.T(lang, "back"), Data: "back"}))

	e.edit(ctx, sess, msg, e.texts.T(lang, "solve_history_menu"), keyboard)
}

// showHistoryDetail renders one past solve as a chart with the full
// parameter list and solution in the caption. Selection is by list
// position, so the list is re-read and the index re-checked here.
func (e *Engine) showHistoryDetail(ctx context.Context, sess *domain.Session, msg *transport.Message, data string) {
	lang := sess.Settings.Language

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic rendering history detail", "user_id", sess.UserID, "panic", r)
			e.edit(ctx, sess, msg, e.texts.T(lang, "error_displaying_application"), e.backKeyboard(lang, "solve_history_back"))
		}
	}()

	index, err := strconv.Atoi(strings.TrimPrefix(data, "application_"))
	if err != nil || index < 0 {
		e.edit(ctx, sess, msg, e.texts.T(lang, "application_not_found"), e.backKeyboard(lang, "solve_history_back"))
		return
	}

	apps, err := e.repo.RecentApplications(ctx, sess.UserID)
	if err != nil {
		e.logger.Error("failed to load history", "user_id", sess.UserID, "error", err)
		e.edit(ctx, sess, msg, e.texts.T(lang, "error_displaying_application"), e.backKeyboard(lang, "solve_history_back"))
		return
	}
	if index >= len(apps) {
		e.edit(ctx, sess, msg, e.texts.T(lang, "application_not_found"), e.backKeyboard(lang, "solve_history_back"))
		return
	}
	app := apps[index]

	entry := app.Entry()

	result, err := e.loadResult(ctx, app.ID)
	if err != nil {
		e.logger.Error("failed to load result", "application_id", app.ID, "error", err)
		e.edit(ctx, sess, msg, e.texts.T(lang, "error_displaying_application"), e.backKeyboard(lang, "solve_history_back"))
		return
	}

	caption := e.detailCaption(lang, entry.Request, result.Solution, sess.Settings.Rounding)
	keyboard := e.backKeyboard(lang, "solve_history_back")

	chart, err := render.Chart(result.XValues, result.YValues, entry.Request.Order)
	if err != nil {
		e.logger.Error("failed to render chart", "application_id", app.ID, "error", err)
		e.edit(ctx, sess, msg, caption, keyboard)
		return
	}

	var messageID int64
	if msg != nil {
		messageID = msg.MessageID
	}
	err = e.chat.EditMedia(ctx, sess.ChatID, messageID, chart, caption, keyboard)
	if err != nil {
		if errors.Is(err, transport.ErrDeliveryTimeout) {
			e.logger.Warn("chart delivery timed out", "application_id", app.ID)
		} else {
			e.logger.Error("failed to deliver chart", "application_id", app.ID, "error", err)
		}
		e.edit(ctx, sess, msg, caption, keyboard)
	}
}

func (e *Engine) loadResult(ctx context.Context, applicationID int64) (*domain.Result, error) {
	rows, err := e.repo.Results(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("no stored result")
	}

	var result domain.Result
	if err := json.Unmarshal([]byte(rows[0].Data), &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

func (e *Engine) detailCaption(lang string, req domain.SolveRequest, solution, rounding string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s:</b> %s\n", e.texts.T(lang, "method"), e.texts.Method(lang, req.Method))
	fmt.Fprintf(&b, "<b>%s:</b> %s\n", e.texts.T(lang, "equation"), req.UserEquation)
	fmt.Fprintf(&b, "<b>%s:</b> %s\n", e.texts.T(lang, "initial_x"), formatFloat(req.InitialX))
	fmt.Fprintf(&b, "<b>%s:</b> %s\n", e.texts.T(lang, "initial_y"), formatFloats(req.InitialY))
	fmt.Fprintf(&b, "<b>%s:</b> %s\n", e.texts.T(lang, "reach_point"), formatFloat(req.ReachPoint))
	fmt.Fprintf(&b, "<b>%s:</b> %s\n", e.texts.T(lang, "step_size"), formatFloat(req.StepSize))
	fmt.Fprintf(&b, "<b>%s:</b>\n%s", e.texts.T(lang, "solution"), render.FormatSolution(solution, req.Order, rounding))
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ", ")
}
