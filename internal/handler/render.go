package handler

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	appI18n "github.com/quizdesk/quizdesk/internal/i18n"
	"github.com/quizdesk/quizdesk/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render error", "template", name, "error", err)
	}
}

// page gives templates access to localized strings via {{.T "ID"}}.
type page struct {
	ctx context.Context
}

func (p page) T(msgID string) string {
	return appI18n.T(p.ctx, msgID)
}

type indexData struct {
	page
	CountLine string
}

type mcqData struct {
	page
	Question model.Question
	Labels   []string
	Title    string
	Elapsed  string
	Progress int
	Flashes  []model.Flash
}

type subjectRow struct {
	Subject    string
	Correct    int
	Total      int
	Percentage float64
}

type resultsData struct {
	page
	Rows      []subjectRow
	TotalLine string
	Answers   []model.Answer
	Flashes   []model.Flash
}
