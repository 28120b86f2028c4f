package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quizdesk/quizdesk/internal/bank"
	"github.com/quizdesk/quizdesk/internal/engine"
	"github.com/quizdesk/quizdesk/internal/handler"
	appI18n "github.com/quizdesk/quizdesk/internal/i18n"
	"github.com/quizdesk/quizdesk/internal/model"
	"github.com/quizdesk/quizdesk/internal/session/memory"
)

func newTestRouter(t *testing.T, opts ...engine.Option) http.Handler {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	csv := "Questions,A,B,C,D,Correct,Subject\n" +
		"What is 2+2?,3,4,5,6,B,Math\n" +
		"What color is the sky?,Blue,Green,Red,Black,A,Nature\n"
	b, err := bank.Parse(strings.NewReader(csv), false)
	if err != nil {
		t.Fatalf("parse bank: %v", err)
	}

	e := engine.New(b, opts...)
	h := handler.New(e, memory.New(), b, model.Config{TimeLimit: e.TimeLimit()})

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	h.Routes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "quiz_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestIndexPage(t *testing.T) {
	r := newTestRouter(t)
	rec := doRequest(t, r, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "This quiz has 2 questions.") {
		t.Errorf("index page missing question count: %s", rec.Body.String())
	}
}

func TestBeginIssuesCookieAndRedirects(t *testing.T) {
	r := newTestRouter(t)
	rec := doRequest(t, r, http.MethodPost, "/begin", url.Values{}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/mcq" {
		t.Errorf("redirect to %q, want /mcq", loc)
	}
	c := sessionCookie(t, rec)
	if !c.HttpOnly {
		t.Error("session cookie not HttpOnly")
	}
}

func TestQuestionWithoutSessionRedirectsHome(t *testing.T) {
	r := newTestRouter(t)
	rec := doRequest(t, r, http.MethodGet, "/mcq", nil, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect to %q, want /", loc)
	}
}

func TestFullQuizFlow(t *testing.T) {
	r := newTestRouter(t)

	cookie := sessionCookie(t, doRequest(t, r, http.MethodPost, "/begin", url.Values{}, nil))

	// First question of the primary pass.
	rec := doRequest(t, r, http.MethodGet, "/mcq", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("mcq status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "What is 2+2?") {
		t.Fatalf("expected Q1, got: %s", rec.Body.String())
	}

	// Answer it, then skip the second question.
	rec = doRequest(t, r, http.MethodPost, "/submit_answer", url.Values{"answer": {"B"}}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("submit status = %d, want 303", rec.Code)
	}
	rec = doRequest(t, r, http.MethodPost, "/skip_mcq", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("skip status = %d, want 303", rec.Code)
	}

	// The skipped question comes back, with the deferral notice.
	rec = doRequest(t, r, http.MethodGet, "/mcq", nil, cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "What color is the sky?") {
		t.Fatalf("expected deferred Q2, got: %s", body)
	}
	if !strings.Contains(body, "Question skipped") {
		t.Errorf("expected skip notice on next render")
	}

	// Answer it; the quiz is complete and /mcq forwards to results.
	doRequest(t, r, http.MethodPost, "/submit_answer", url.Values{"answer": {"a"}}, cookie)
	rec = doRequest(t, r, http.MethodGet, "/mcq", nil, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/results" {
		t.Fatalf("expected redirect to /results, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = doRequest(t, r, http.MethodGet, "/results", nil, cookie)
	body = rec.Body.String()
	if !strings.Contains(body, "Total score: 2 / 2") {
		t.Errorf("expected full score, got: %s", body)
	}
	if !strings.Contains(body, "Math") || !strings.Contains(body, "Nature") {
		t.Errorf("expected per-subject rows, got: %s", body)
	}
	if !strings.Contains(body, "100.0") {
		t.Errorf("expected percentages, got: %s", body)
	}
}

func TestEmptyAnswerReprompts(t *testing.T) {
	r := newTestRouter(t)
	cookie := sessionCookie(t, doRequest(t, r, http.MethodPost, "/begin", url.Values{}, nil))

	rec := doRequest(t, r, http.MethodPost, "/submit_answer", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/mcq" {
		t.Fatalf("expected redirect back to /mcq, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = doRequest(t, r, http.MethodGet, "/mcq", nil, cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "Please select an option") {
		t.Errorf("expected validation flash, got: %s", body)
	}
	// Still on the first question: nothing was consumed.
	if !strings.Contains(body, "What is 2+2?") {
		t.Errorf("expected Q1 re-shown, got: %s", body)
	}
}

func TestExpiredSessionForwardsToResults(t *testing.T) {
	now := time.Now()
	r := newTestRouter(t, engine.WithClock(func() time.Time { return now }), engine.WithTimeLimit(time.Minute))

	cookie := sessionCookie(t, doRequest(t, r, http.MethodPost, "/begin", url.Values{}, nil))
	doRequest(t, r, http.MethodPost, "/submit_answer", url.Values{"answer": {"B"}}, cookie)

	now = now.Add(2 * time.Minute)
	rec := doRequest(t, r, http.MethodGet, "/mcq", nil, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/results" {
		t.Fatalf("expected redirect to /results, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = doRequest(t, r, http.MethodGet, "/results", nil, cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "Time is up!") {
		t.Errorf("expected expiry flash on results, got: %s", body)
	}
	if !strings.Contains(body, "Total score: 1 / 2") {
		t.Errorf("expected pre-expiry score, got: %s", body)
	}
}

func TestRestartRedirectsHome(t *testing.T) {
	r := newTestRouter(t)
	rec := doRequest(t, r, http.MethodGet, "/restart", nil, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestResultsWithoutSessionIsEmptyReport(t *testing.T) {
	r := newTestRouter(t)
	rec := doRequest(t, r, http.MethodGet, "/results", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Total score: 0 / 0") {
		t.Errorf("expected empty report, got: %s", rec.Body.String())
	}
}

func TestBeginResetsExistingAttempt(t *testing.T) {
	r := newTestRouter(t)
	cookie := sessionCookie(t, doRequest(t, r, http.MethodPost, "/begin", url.Values{}, nil))
	doRequest(t, r, http.MethodPost, "/submit_answer", url.Values{"answer": {"B"}}, cookie)

	// Starting again discards the in-flight progress.
	doRequest(t, r, http.MethodPost, "/begin", url.Values{}, cookie)
	rec := doRequest(t, r, http.MethodGet, "/results", nil, cookie)
	if !strings.Contains(rec.Body.String(), "Total score: 0 / 2") {
		t.Errorf("expected reset score, got: %s", rec.Body.String())
	}
}
