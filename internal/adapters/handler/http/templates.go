package http

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vncsmyrnk/polls/internal/core/domain"
)

//go:embed templates/*.html
var templateFiles embed.FS

func parseTemplates(now func() time.Time) (*template.Template, error) {
	funcs := template.FuncMap{
		"since": humanize.Time,
		"recent": func(q *domain.Question) bool {
			return q.WasPublishedRecently(now())
		},
		"percent": func(r *domain.Results, c domain.Choice) string {
			return fmt.Sprintf("%.0f%%", r.Share(c))
		},
	}

	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
