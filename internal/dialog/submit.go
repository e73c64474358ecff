package dialog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ashureev/solvebot/internal/domain"
	"github.com/ashureev/solvebot/internal/render"
	"github.com/ashureev/solvebot/internal/store"
	"github.com/ashureev/solvebot/internal/transport"
)

// completion is the immutable snapshot handed to the background
// completion task. It carries everything the task needs so it never
// has to read the live session.
type completion struct {
	jobID         int64
	applicationID int64
	userID        int64
	chatID        int64
	messageID     int64
	order         int
	settings      domain.Settings
}

// submit assembles the solve request from the collected scratch
// record, creates the backend job and spawns the background
// completion task. The session is back in the menu before the
// backend has answered anything beyond job creation.
func (e *Engine) submit(ctx context.Context, sess *domain.Session) {
	lang := sess.Settings.Language

	progressID, err := e.chat.SendText(ctx, sess.ChatID, "⏳", nil)
	if err != nil {
		e.logger.Error("failed to send progress message", "user_id", sess.UserID, "error", err)
		sess.ResetScratch()
		return
	}

	req := sess.SolveRequest()

	jobID, err := e.gateway.CreateJob(ctx, sess.UserID, req)
	if err != nil {
		e.logger.Error("job creation failed", "user_id", sess.UserID, "error", err)
		sess.ResetScratch()
		if err := e.chat.EditText(ctx, sess.ChatID, progressID,
			e.texts.T(lang, "server_error")+" "+e.texts.T(lang, "try_again"),
			e.solutionKeyboard(lang)); err != nil {
			e.logger.Error("failed to report job creation failure", "user_id", sess.UserID, "error", err)
		}
		return
	}

	e.logger.Info("job created", "user_id", sess.UserID, "job_id", jobID)

	var applicationID int64
	if params, err := json.Marshal(req); err != nil {
		e.logger.Error("failed to serialize request for history", "user_id", sess.UserID, "error", err)
	} else if applicationID, err = e.repo.SaveApplication(ctx, sess.UserID, string(params), store.StatusNew); err != nil {
		// History is best effort; the solve itself proceeds.
		e.logger.Error("failed to record application", "user_id", sess.UserID, "error", err)
		applicationID = 0
	}

	snap := completion{
		jobID:         jobID,
		applicationID: applicationID,
		userID:        sess.UserID,
		chatID:        sess.ChatID,
		messageID:     progressID,
		order:         sess.Scratch.Order,
		settings:      sess.Settings,
	}

	sess.ResetScratch()

	e.background.Add(1)
	go e.completeSolve(snap)
}

// completeSolve is the background completion task: exactly one per
// submission, running to a terminal outcome. It mutates only the
// progress message it was given.
func (e *Engine) completeSolve(snap completion) {
	defer e.background.Done()

	// Detached from the foreground turn: the task outlives the update
	// that triggered it.
	ctx := context.Background()
	lang := snap.settings.Language

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in completion task", "user_id", snap.userID, "job_id", snap.jobID, "panic", r)
			e.editFinal(ctx, snap, e.texts.T(lang, "server_error")+" "+e.texts.T(lang, "try_again"))
		}
	}()

	// Write-through of the settings snapshot after any outcome. May
	// redundantly persist unchanged settings.
	defer func() {
		if err := e.repo.PutSettings(ctx, snap.userID, snap.settings); err != nil {
			e.logger.Error("settings write-through failed", "user_id", snap.userID, "error", err)
		}
	}()

	completed, err := e.gateway.AwaitCompletion(ctx, snap.jobID)
	if err != nil || !completed {
		if err != nil {
			e.logger.Error("completion wait failed", "user_id", snap.userID, "job_id", snap.jobID, "error", err)
		}
		e.markFailed(ctx, snap)
		e.editFinal(ctx, snap, e.texts.T(lang, "processing_error")+" "+e.texts.T(lang, "try_again"))
		return
	}

	results, err := e.gateway.Results(ctx, snap.jobID)
	if err != nil || len(results) == 0 {
		if err != nil {
			e.logger.Error("result fetch failed", "user_id", snap.userID, "job_id", snap.jobID, "error", err)
		}
		e.markFailed(ctx, snap)
		e.editFinal(ctx, snap, e.texts.T(lang, "data_error")+" "+e.texts.T(lang, "try_again"))
		return
	}

	var result domain.Result
	if err := json.Unmarshal([]byte(results[0].Data), &result); err != nil || result.Solution == "" {
		if err != nil {
			e.logger.Error("result payload unparseable", "user_id", snap.userID, "job_id", snap.jobID, "error", err)
		}
		e.markFailed(ctx, snap)
		e.editFinal(ctx, snap, e.texts.T(lang, "data_error")+" "+e.texts.T(lang, "try_again"))
		return
	}

	// Copy the result into the history store so detail views are
	// served locally.
	if snap.applicationID != 0 {
		if err := e.repo.SaveResult(ctx, snap.applicationID, results[0].Data); err != nil {
			e.logger.Error("failed to store result", "application_id", snap.applicationID, "error", err)
		}
		if err := e.repo.UpdateApplicationStatus(ctx, snap.applicationID, store.StatusCompleted); err != nil {
			e.logger.Error("failed to mark application completed", "application_id", snap.applicationID, "error", err)
		}
	}

	caption := render.FormatSolution(result.Solution, snap.order, snap.settings.Rounding)
	keyboard := e.solutionKeyboard(lang)

	chart, err := render.Chart(result.XValues, result.YValues, snap.order)
	if err != nil {
		e.logger.Error("chart render failed", "user_id", snap.userID, "job_id", snap.jobID, "error", err)
		e.editFinal(ctx, snap, caption)
		return
	}

	if err := e.chat.EditMedia(ctx, snap.chatID, snap.messageID, chart, caption, keyboard); err != nil {
		if errors.Is(err, transport.ErrDeliveryTimeout) {
			e.logger.Warn("media delivery timed out, falling back to text", "user_id", snap.userID, "job_id", snap.jobID)
		} else {
			e.logger.Error("media edit failed, falling back to text", "user_id", snap.userID, "job_id", snap.jobID, "error", err)
		}
		e.editFinal(ctx, snap, caption)
	}
}

func (e *Engine) markFailed(ctx context.Context, snap completion) {
	if snap.applicationID == 0 {
		return
	}
	if err := e.repo.UpdateApplicationStatus(ctx, snap.applicationID, store.StatusFailed); err != nil {
		e.logger.Error("failed to mark application failed", "application_id", snap.applicationID, "error", err)
	}
}

// editFinal writes the terminal text outcome into the progress
// message. Failures are logged and swallowed; there is nothing left
// to tell the user through.
func (e *Engine) editFinal(ctx context.Context, snap completion, text string) {
	if err := e.chat.EditText(ctx, snap.chatID, snap.messageID, text, e.solutionKeyboard(snap.settings.Language)); err != nil {
		e.logger.Error("failed to edit progress message", "user_id", snap.userID, "job_id", snap.jobID, "error", err)
	}
}
