// Package engine implements the quiz session state machine. It is pure
// logic over a read-only bank and a mutable session state; persistence and
// rendering live elsewhere.
package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/quizdesk/quizdesk/internal/bank"
	"github.com/quizdesk/quizdesk/internal/model"
)

var (
	// ErrNotStarted is returned when an operation runs without a live session.
	ErrNotStarted = errors.New("quiz session not started")
	// ErrEmptyAnswer is returned for a blank submission; no state is mutated.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrTimeExpired signals that the session time limit has passed.
	ErrTimeExpired = errors.New("session time limit exceeded")
	// ErrQuizComplete signals that no question remains to present.
	ErrQuizComplete = errors.New("no questions remain")
)

// DefaultTimeLimit is the global session time limit.
const DefaultTimeLimit = 600 * time.Second

// Engine runs quiz sessions against a fixed question bank.
type Engine struct {
	bank  *bank.Bank
	limit time.Duration
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeLimit overrides the session time limit. Non-positive values keep
// the default.
func WithTimeLimit(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.limit = d
		}
	}
}

// WithClock injects a clock for deterministic expiry tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over the given bank.
func New(b *bank.Bank, opts ...Option) *Engine {
	e := &Engine{bank: b, limit: DefaultTimeLimit, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TimeLimit returns the configured session time limit.
func (e *Engine) TimeLimit() time.Duration { return e.limit }

// Start returns a fresh session state: position zero, empty logs, and a
// scoreboard whose totals are counted from the bank. Any previous state for
// the user is simply replaced by the caller.
func (e *Engine) Start() *model.SessionState {
	totals := e.bank.SubjectTotals()
	scores := make(map[string]*model.SubjectScore, len(totals))
	for subject, total := range totals {
		scores[subject] = &model.SubjectScore{Total: total}
	}
	return &model.SessionState{
		StartedAt: e.now(),
		Skipped:   []int{},
		Answers:   []model.Answer{},
		Scores:    scores,
	}
}

// Current selects the question to present. Expiry is checked before
// anything else; then the primary pass runs strictly sequentially, and once
// it is exhausted deferred questions are replayed FIFO, moving the position
// back to the deferred index. Progress is computed from the position as it
// was on entry, so it can read over 100 during replay.
func (e *Engine) Current(s *model.SessionState) (model.QuestionView, error) {
	if !s.Started() {
		return model.QuestionView{}, ErrNotStarted
	}
	elapsed := e.now().Sub(s.StartedAt)
	if elapsed > e.limit {
		return model.QuestionView{}, ErrTimeExpired
	}

	view := model.QuestionView{
		Elapsed:  elapsed,
		Progress: s.Index * 100 / e.bank.Len(),
	}
	switch {
	case s.Index < e.bank.Len():
		view.Question = e.bank.Question(s.Index)
	case len(s.Skipped) > 0:
		index := s.Skipped[0]
		s.Skipped = s.Skipped[1:]
		s.Index = index
		view.Question = e.bank.Question(index)
	default:
		return model.QuestionView{}, ErrQuizComplete
	}
	return view, nil
}

// Submit records an answer for the question at the current position. A
// blank submission fails with ErrEmptyAnswer and mutates nothing. When the
// position has already moved past the bank the call is a silent no-op.
func (e *Engine) Submit(s *model.SessionState, raw string) error {
	if !s.Started() {
		return ErrNotStarted
	}
	if raw == "" {
		return ErrEmptyAnswer
	}
	if s.Index >= e.bank.Len() {
		return nil
	}

	q := e.bank.Question(s.Index)
	given := strings.ToUpper(strings.TrimSpace(raw))
	if given == q.Correct {
		if score, ok := s.Scores[q.Subject]; ok {
			score.Correct++
		}
	}
	// Answering a previously deferred question clears its pending status.
	for i, index := range s.Skipped {
		if index == s.Index {
			s.Skipped = append(s.Skipped[:i], s.Skipped[i+1:]...)
			break
		}
	}
	s.Answers = append(s.Answers, model.Answer{Question: q, Given: given})
	s.Index++
	return nil
}

// Skip defers the question at the current position for later review and
// advances past it. It reports whether a question was actually deferred so
// the caller knows to surface the notice. Duplicate skips of the same index
// leave the queue unchanged.
func (e *Engine) Skip(s *model.SessionState) bool {
	if !s.Started() || s.Index >= e.bank.Len() {
		return false
	}
	queued := false
	for _, index := range s.Skipped {
		if index == s.Index {
			queued = true
			break
		}
	}
	if !queued {
		s.Skipped = append(s.Skipped, s.Index)
	}
	s.Index++
	return true
}

// Results computes the score report from whatever the state currently
// holds. It is a pure read and is deliberately callable at any time, even
// mid-session.
func (e *Engine) Results(s *model.SessionState) model.Results {
	res := model.Results{
		Scores:      map[string]*model.SubjectScore{},
		Percentages: map[string]float64{},
	}
	if s == nil {
		return res
	}
	res.Answers = s.Answers
	for subject, score := range s.Scores {
		res.Scores[subject] = score
		res.TotalCorrect += score.Correct
		res.TotalQuestions += score.Total
		pct := 0.0
		if score.Total > 0 {
			pct = float64(score.Correct) / float64(score.Total) * 100
		}
		res.Percentages[subject] = pct
	}
	return res
}
