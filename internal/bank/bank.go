// Package bank loads the immutable question bank from CSV.
package bank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/quizdesk/quizdesk/internal/model"
)

// ErrNoQuestions is returned when the source contains no question rows.
var ErrNoQuestions = errors.New("question bank is empty")

// subjectRange maps 0-based row indices below Limit to a subject. Rows past
// the last range fall into the catch-all subject. The thresholds are fixed
// configuration, not derived from the data.
type subjectRange struct {
	Limit   int
	Subject string
}

var subjectRanges = []subjectRange{
	{Limit: 68, Subject: "Biology"},
	{Limit: 122, Subject: "Chemistry"},
	{Limit: 176, Subject: "Physics"},
	{Limit: 194, Subject: "English"},
}

const catchAllSubject = "Logical Reasoning"

// SubjectForIndex derives a subject from a 0-based row position.
func SubjectForIndex(index int) string {
	for _, r := range subjectRanges {
		if index < r.Limit {
			return r.Subject
		}
	}
	return catchAllSubject
}

// Bank is the ordered, read-only question collection shared by all sessions.
type Bank struct {
	questions []model.Question
	totals    map[string]int
	subjects  []string // first-seen order, for stable display
}

// Load reads the CSV file at path. Shuffling, when enabled, happens after
// numbers and subjects are assigned, so both keep their pre-shuffle values.
func Load(path string, shuffle bool) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer f.Close()

	b, err := Parse(f, shuffle)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return b, nil
}

// Parse reads CSV question rows. The first row is a header; columns are
// looked up by name (Questions, A, B, C, D, Correct, optional Subject).
func Parse(r io.Reader, shuffle bool) (*Bank, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoQuestions
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var questions []model.Question
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(questions)+2, err)
		}

		index := len(questions)
		subject := field(row, "Subject")
		if subject == "" {
			subject = SubjectForIndex(index)
		}
		options := make(map[string]string, len(model.OptionLabels))
		for _, label := range model.OptionLabels {
			options[label] = strings.TrimSpace(field(row, label))
		}
		questions = append(questions, model.Question{
			Number:  index + 1,
			Text:    strings.TrimSpace(field(row, "Questions")),
			Options: options,
			Correct: strings.ToUpper(strings.TrimSpace(field(row, "Correct"))),
			Subject: subject,
		})
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	if shuffle {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	b := &Bank{questions: questions, totals: make(map[string]int)}
	for _, q := range questions {
		if _, seen := b.totals[q.Subject]; !seen {
			b.subjects = append(b.subjects, q.Subject)
		}
		b.totals[q.Subject]++
	}
	return b, nil
}

// Len returns the number of questions.
func (b *Bank) Len() int { return len(b.questions) }

// Question returns the record at the given 0-based index.
func (b *Bank) Question(index int) model.Question { return b.questions[index] }

// Questions returns the full ordered sequence.
func (b *Bank) Questions() []model.Question { return b.questions }

// Subjects returns subjects in first-seen order.
func (b *Bank) Subjects() []string { return b.subjects }

// SubjectTotals returns a copy of the per-subject question counts.
func (b *Bank) SubjectTotals() map[string]int {
	totals := make(map[string]int, len(b.totals))
	for subject, n := range b.totals {
		totals[subject] = n
	}
	return totals
}

// ShuffleEnabled reports whether a raw config value turns shuffling on.
// Accepted truthy values, case-insensitive: "1", "true", "yes".
func ShuffleEnabled(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
