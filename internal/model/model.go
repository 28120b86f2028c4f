package model

import "time"

// OptionLabels is the fixed set of answer labels, in display order. Every
// question carries all four labels even when an option text is empty.
var OptionLabels = []string{"A", "B", "C", "D"}

// Question is a single multiple-choice question from the bank.
type Question struct {
	Number  int               `json:"number"`
	Text    string            `json:"text"`
	Options map[string]string `json:"options"`
	Correct string            `json:"correct"`
	Subject string            `json:"subject"`
}

// SubjectScore tracks correct answers against the fixed per-subject total.
type SubjectScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Answer is one entry in the append-only answer log.
type Answer struct {
	Question Question `json:"question"`
	Given    string   `json:"given"`
}

// FlashLevel classifies one-shot UI notices.
type FlashLevel string

const (
	FlashInfo    FlashLevel = "info"
	FlashDanger  FlashLevel = "danger"
	FlashWarning FlashLevel = "warning"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   FlashLevel `json:"level"`
	Message string     `json:"message"`
}

// SessionState is the mutable per-user quiz state. All fields round-trip
// through JSON so any session backend can store it.
type SessionState struct {
	StartedAt time.Time                `json:"started_at"`
	Index     int                      `json:"index"`
	Skipped   []int                    `json:"skipped"`
	Answers   []Answer                 `json:"answers"`
	Scores    map[string]*SubjectScore `json:"scores"`
	Flashes   []Flash                  `json:"flashes,omitempty"`
}

// Started reports whether the state belongs to a live quiz attempt.
func (s *SessionState) Started() bool {
	return s != nil && !s.StartedAt.IsZero()
}

// PushFlash queues a one-shot notice for the next page render.
func (s *SessionState) PushFlash(level FlashLevel, message string) {
	s.Flashes = append(s.Flashes, Flash{Level: level, Message: message})
}

// PopFlashes drains and returns all queued notices.
func (s *SessionState) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

// QuestionView is what the engine hands to the presentation layer for one
// question. Progress is the primary-pass percentage; it can exceed 100
// while deferred questions are being replayed.
type QuestionView struct {
	Question Question
	Elapsed  time.Duration
	Progress int
}

// Results is the final (or interim) score report.
type Results struct {
	Scores         map[string]*SubjectScore `json:"scores"`
	Percentages    map[string]float64       `json:"percentages"`
	TotalCorrect   int                      `json:"total_correct"`
	TotalQuestions int                      `json:"total_questions"`
	Answers        []Answer                 `json:"answers"`
}

// Config holds runtime parameters set via CLI flags.
type Config struct {
	TimeLimit     time.Duration // global quiz time limit
	Lang          string        // UI language
	SecureCookies bool          // Set Secure flag on cookies (disable for local dev)
}
