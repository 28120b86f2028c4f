// Package handler is the HTTP presentation adapter: it maps routes onto
// engine operations, keeps the session cookie, and renders the pages.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizdesk/quizdesk/internal/bank"
	"github.com/quizdesk/quizdesk/internal/engine"
	appI18n "github.com/quizdesk/quizdesk/internal/i18n"
	"github.com/quizdesk/quizdesk/internal/model"
	"github.com/quizdesk/quizdesk/internal/session"
)

const sessionCookieName = "quiz_session"

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	sessions session.Store
	bank     *bank.Bank
	config   model.Config
}

// New creates a new Handler.
func New(e *engine.Engine, sessions session.Store, b *bank.Bank, cfg model.Config) *Handler {
	return &Handler{engine: e, sessions: sessions, bank: b, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/begin", h.handleBegin)
	r.Get("/restart", h.handleRestart)
	r.Get("/mcq", h.handleQuestion)
	r.Post("/submit_answer", h.handleSubmit)
	r.Post("/skip_mcq", h.handleSkip)
	r.Get("/results", h.handleResults)
}

// sessionToken returns the user's session token, issuing the cookie first
// if the request does not carry one.
func (h *Handler) sessionToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	token, err := session.NewToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	return token, nil
}

// loadState fetches the caller's session state; both return values are
// empty when the user has no cookie or no stored state.
func (h *Handler) loadState(r *http.Request) (string, *model.SessionState, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", nil, nil
	}
	state, err := h.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return "", nil, err
	}
	return cookie.Value, state, nil
}

func (h *Handler) saveState(w http.ResponseWriter, r *http.Request, token string, state *model.SessionState) bool {
	if err := h.sessions.Put(r.Context(), token, state); err != nil {
		slog.Error("save session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.render(w, "index.html", indexData{
		page:      page{ctx: ctx},
		CountLine: appI18n.Td(ctx, "QuestionCount", map[string]any{"Count": h.bank.Len()}),
	})
}

func (h *Handler) handleBegin(w http.ResponseWriter, r *http.Request) {
	token, err := h.sessionToken(w, r)
	if err != nil {
		slog.Error("issue session token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	// Explicit reset: any previous attempt is discarded.
	if !h.saveState(w, r, token, h.engine.Start()) {
		return
	}
	http.Redirect(w, r, "/mcq", http.StatusSeeOther)
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token, state, err := h.loadState(r)
	if err != nil {
		slog.Error("load session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !state.Started() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	flashes := state.PopFlashes()
	view, err := h.engine.Current(state)
	switch {
	case errors.Is(err, engine.ErrTimeExpired):
		state.PushFlash(model.FlashWarning, appI18n.T(ctx, "TimeUp"))
		if !h.saveState(w, r, token, state) {
			return
		}
		http.Redirect(w, r, "/results", http.StatusSeeOther)
		return
	case errors.Is(err, engine.ErrQuizComplete):
		if !h.saveState(w, r, token, state) {
			return
		}
		http.Redirect(w, r, "/results", http.StatusSeeOther)
		return
	case err != nil:
		slog.Error("select question", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Current may have popped a deferred index; persist before rendering.
	if !h.saveState(w, r, token, state) {
		return
	}
	h.render(w, "mcq.html", mcqData{
		page:     page{ctx: ctx},
		Question: view.Question,
		Labels:   model.OptionLabels,
		Title:    appI18n.Td(ctx, "QuestionN", map[string]any{"Number": view.Question.Number}),
		Elapsed:  appI18n.Td(ctx, "ElapsedSeconds", map[string]any{"Seconds": int(view.Elapsed.Seconds())}),
		Progress: view.Progress,
		Flashes:  flashes,
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token, state, err := h.loadState(r)
	if err != nil {
		slog.Error("load session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !state.Started() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	err = h.engine.Submit(state, r.FormValue("answer"))
	if errors.Is(err, engine.ErrEmptyAnswer) {
		state.PushFlash(model.FlashDanger, appI18n.T(ctx, "SelectOption"))
	} else if err != nil {
		slog.Error("submit answer", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !h.saveState(w, r, token, state) {
		return
	}
	http.Redirect(w, r, "/mcq", http.StatusSeeOther)
}

func (h *Handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token, state, err := h.loadState(r)
	if err != nil {
		slog.Error("load session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !state.Started() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if h.engine.Skip(state) {
		state.PushFlash(model.FlashInfo, appI18n.T(ctx, "QuestionSkipped"))
	}
	if !h.saveState(w, r, token, state) {
		return
	}
	http.Redirect(w, r, "/mcq", http.StatusSeeOther)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token, state, err := h.loadState(r)
	if err != nil {
		slog.Error("load session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var flashes []model.Flash
	if state != nil {
		flashes = state.PopFlashes()
		if token != "" && !h.saveState(w, r, token, state) {
			return
		}
	}
	results := h.engine.Results(state)

	rows := make([]subjectRow, 0, len(results.Scores))
	for _, subject := range h.bank.Subjects() {
		score, ok := results.Scores[subject]
		if !ok {
			continue
		}
		rows = append(rows, subjectRow{
			Subject:    subject,
			Correct:    score.Correct,
			Total:      score.Total,
			Percentage: results.Percentages[subject],
		})
	}

	h.render(w, "results.html", resultsData{
		page: page{ctx: ctx},
		Rows: rows,
		TotalLine: appI18n.Td(ctx, "TotalScore", map[string]any{
			"Correct": results.TotalCorrect,
			"Total":   results.TotalQuestions,
		}),
		Answers: results.Answers,
		Flashes: flashes,
	})
}
