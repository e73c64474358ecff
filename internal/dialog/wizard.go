package dialog

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ashureev/solvebot/internal/domain"
	"github.com/ashureev/solvebot/internal/equation"
	"github.com/ashureev/solvebot/internal/transport"
)

const (
	// intervalEpsilon is the minimum distance between the initial x
	// and the reach point; anything closer makes the integration
	// interval degenerate.
	intervalEpsilon = 1e-10

	// maxCalculationPoints caps the number of integration points a
	// single request may imply, protecting the backend and the
	// transport from unbounded work.
	maxCalculationPoints = 100000
)

// beginSolve enters the wizard from the menu.
func (e *Engine) beginSolve(ctx context.Context, sess *domain.Session, msg *transport.Message) {
	e.logger.Info("user started solving",
		"user_id", sess.UserID,
		"method", sess.Settings.Method,
		"rounding", sess.Settings.Rounding)

	sess.State = domain.StateEquation

	lang := sess.Settings.Language
	text := e.texts.Prompt(lang, "enter_equation", "hints_enter_equation", sess.Settings.HintsEnabled())
	e.edit(ctx, sess, msg, text, nil)
}

func (e *Engine) handleEquation(ctx context.Context, sess *domain.Session, text string) {
	lang := sess.Settings.Language

	if ok, offending := equation.CheckSymbols(text); !ok {
		e.logger.Info("unsupported symbol in equation", "user_id", sess.UserID, "symbol", offending)
		e.reply(ctx, sess, e.texts.T(lang, "symbols_error")+offending+". "+e.texts.T(lang, "try_again"))
		return
	}

	if !equation.CheckParentheses(text) {
		e.logger.Info("unbalanced parentheses in equation", "user_id", sess.UserID)
		e.reply(ctx, sess, e.texts.T(lang, "parentheses_error")+" "+e.texts.T(lang, "try_again"))
		return
	}

	normalized, order, ok := equation.Normalize(text)
	if !ok {
		e.logger.Info("equation not normalizable", "user_id", sess.UserID)
		e.reply(ctx, sess, e.texts.T(lang, "equation_error")+" "+e.texts.T(lang, "try_again"))
		return
	}

	e.logger.Info("equation accepted",
		"user_id", sess.UserID,
		"normalized", normalized,
		"order", order)

	sess.Scratch.RawEquation = text
	sess.Scratch.Normalized = normalized
	sess.Scratch.Order = order
	sess.State = domain.StateInitialX

	e.prompt(ctx, sess, "enter_x", "hints_enter_x")
}

func (e *Engine) handleInitialX(ctx context.Context, sess *domain.Session, text string) {
	lang := sess.Settings.Language

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		e.logger.Info("invalid initial x", "user_id", sess.UserID, "input", text)
		e.reply(ctx, sess, e.texts.T(lang, "invalid_initial_x")+" "+e.texts.T(lang, "try_again"))
		return
	}

	sess.Scratch.InitialX = value
	sess.State = domain.StateInitialY

	if sess.Scratch.Order == 1 {
		e.prompt(ctx, sess, "enter_y", "hints_enter_y")
	} else {
		e.prompt(ctx, sess, "enter_y_multiple", "hints_enter_y_multiple")
	}
}

func (e *Engine) handleInitialY(ctx context.Context, sess *domain.Session, text string) {
	lang := sess.Settings.Language

	tokens := splitValues(text)

	values := make([]float64, 0, len(tokens))
	for _, token := range tokens {
		value, err := strconv.ParseFloat(token, 64)
		if err != nil {
			e.logger.Info("invalid initial y", "user_id", sess.UserID, "input", text)
			e.reply(ctx, sess, e.texts.T(lang, "invalid_initial_y")+token+". "+e.texts.T(lang, "try_again"))
			return
		}
		values = append(values, value)
	}

	if len(values) != sess.Scratch.Order {
		e.logger.Info("wrong initial y count",
			"user_id", sess.UserID,
			"got", len(values),
			"want", sess.Scratch.Order)
		e.reply(ctx, sess, fmt.Sprintf("%s%d. %s%d. %s",
			e.texts.T(lang, "invalid_initial_y_count1"), len(values),
			e.texts.T(lang, "invalid_initial_y_count2"), sess.Scratch.Order,
			e.texts.T(lang, "try_again")))
		return
	}

	sess.Scratch.InitialY = values
	sess.State = domain.StateReachPoint

	e.prompt(ctx, sess, "enter_reach_point", "hints_enter_reach_point")
}

func (e *Engine) handleReachPoint(ctx context.Context, sess *domain.Session, text string) {
	lang := sess.Settings.Language

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		e.logger.Info("invalid reach point", "user_id", sess.UserID, "input", text)
		e.reply(ctx, sess, e.texts.T(lang, "invalid_reach_point")+" "+e.texts.T(lang, "try_again"))
		return
	}

	if math.Abs(value-sess.Scratch.InitialX) < intervalEpsilon {
		e.logger.Info("degenerate integration interval", "user_id", sess.UserID, "input", text)
		e.reply(ctx, sess, e.texts.T(lang, "reach_point_equals_initial")+" "+e.texts.T(lang, "try_again"))
		return
	}

	sess.Scratch.ReachPoint = value
	sess.State = domain.StateStepSize

	e.prompt(ctx, sess, "enter_step_size", "hints_enter_step_size")
}

func (e *Engine) handleStepSize(ctx context.Context, sess *domain.Session, text string) {
	lang := sess.Settings.Language

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || value == 0 {
		e.logger.Info("invalid step size", "user_id", sess.UserID, "input", text)
		e.reply(ctx, sess, e.texts.T(lang, "invalid_step_size")+" "+e.texts.T(lang, "try_again"))
		return
	}

	points := math.Ceil(math.Abs(sess.Scratch.ReachPoint-sess.Scratch.InitialX) / math.Abs(value))
	if points > maxCalculationPoints {
		e.logger.Info("too many calculation points", "user_id", sess.UserID, "points", int(points))
		e.reply(ctx, sess, fmt.Sprintf("%s%d. %s%d. %s",
			e.texts.T(lang, "too_many_points"), int(points),
			e.texts.T(lang, "max_points_allowed"), maxCalculationPoints,
			e.texts.T(lang, "try_again")))
		return
	}

	sess.Scratch.StepSize = value

	e.submit(ctx, sess)
}

// splitValues tokenizes multi-value numeric input: comma-separated
// when a comma is present, whitespace-separated otherwise. Empty
// comma segments are kept so "1,,2" fails numeric parsing instead of
// silently collapsing to two values.
func splitValues(text string) []string {
	if strings.Contains(text, ",") {
		parts := strings.Split(text, ",")
		tokens := make([]string, 0, len(parts))
		for _, part := range parts {
			tokens = append(tokens, strings.TrimSpace(part))
		}
		return tokens
	}
	return strings.Fields(text)
}
