package internal

import (
	"altus-chat/repositories"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []repositories.Entry
	Stats  map[string]any
}

// InspectHandler renders the badger records under ?prefix= as an HTML table.
// It is read-only and meant to be mounted in debug mode only.
func InspectHandler(db *badger.DB, log *slog.Logger, statsProvider StatsProvider) http.Handler {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "dm:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		err := repositories.Scan(db, prefix, func(e repositories.Entry) {
			data.Items = append(data.Items, e)
		})
		if err != nil {
			log.Warn("Inspection scan failed", "prefix", prefix, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})
}
