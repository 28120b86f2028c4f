package i18n

import (
	"context"
	"strings"
	"testing"
)

func ctxForLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := ctxForLang(t, "en")

	if got := T(ctx, "StartQuiz"); got != "Start Quiz" {
		t.Errorf("T(StartQuiz) = %q", got)
	}
	if got := T(ctx, "TimeUp"); got != "Time is up!" {
		t.Errorf("T(TimeUp) = %q", got)
	}
}

func TestTranslateHindi(t *testing.T) {
	ctx := ctxForLang(t, "hi")

	if got := T(ctx, "StartQuiz"); got != "क्विज़ शुरू करें" {
		t.Errorf("T(StartQuiz) = %q", got)
	}
	if got := Td(ctx, "QuestionN", map[string]any{"Number": 3}); !strings.Contains(got, "3") {
		t.Errorf("Td(QuestionN) = %q", got)
	}
}

func TestTemplateData(t *testing.T) {
	ctx := ctxForLang(t, "en")

	got := Td(ctx, "TotalScore", map[string]any{"Correct": 3, "Total": 5})
	if got != "Total score: 3 / 5" {
		t.Errorf("Td(TotalScore) = %q", got)
	}
	got = Td(ctx, "QuestionCount", map[string]any{"Count": 194})
	if got != "This quiz has 194 questions." {
		t.Errorf("Td(QuestionCount) = %q", got)
	}
}

func TestMissingKeyFallsBackToID(t *testing.T) {
	ctx := ctxForLang(t, "en")

	if got := T(ctx, "NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("T(NoSuchMessage) = %q, want the ID back", got)
	}
}

func TestNoLocalizerInContext(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// A bare context falls back to the default language.
	if got := T(context.Background(), "Submit"); got != "Submit" {
		t.Errorf("T(Submit) = %q", got)
	}
}

func TestUnknownLanguageFallsBack(t *testing.T) {
	ctx := ctxForLang(t, "de")

	if got := T(ctx, "StartQuiz"); got != "Start Quiz" {
		t.Errorf("expected default-language fallback, got %q", got)
	}
}
