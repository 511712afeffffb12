package handlers

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/askmatsya/bolt/internal/logger"
	"github.com/askmatsya/bolt/internal/models"
)

const partialsPattern = "partials/*.html"

// TemplateCache holds parsed templates
type TemplateCache struct {
	cache map[string]*template.Template
	mu    sync.RWMutex
	funcs template.FuncMap
}

func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		cache: make(map[string]*template.Template),
		funcs: template.FuncMap{
			"prevPage":     func(currentPage int) int { return currentPage - 1 },
			"nextPage":     func(currentPage int) int { return currentPage + 1 },
			"inr":          models.FormatINR,
			"join":         func(values []string) string { return strings.Join(values, ", ") },
			"nextStatuses": nextStatuses,
		},
	}
}

func (tc *TemplateCache) AddFunc(name string, fn any) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.funcs[name] = fn
}

// Load parses every top-level *.html page in fsys together with the shared partials.
func (tc *TemplateCache) Load(fsys fs.FS) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	log := logger.Component("templates")
	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return err
	}
	for _, name := range files {
		tmpl, err := template.New(name).Funcs(tc.funcs).ParseFS(fsys, name, partialsPattern)
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("Failed to parse template")
			return err
		}
		tc.cache[name] = tmpl
		log.Debug().Str("name", name).Msg("Cached template")
	}
	return nil
}

func (tc *TemplateCache) Get(name string) *template.Template {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.cache[name]
}

// Render executes the named page into a buffer so a failing template
// produces a clean 500 instead of a half-written page.
func (tc *TemplateCache) Render(w http.ResponseWriter, name string, data any) {
	tmpl := tc.Get(name)
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logFor("templates").Error().Err(err).Str("name", name).Msg("Failed to render template")
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// nextStatuses lists the statuses an admin may move an order to.
func nextStatuses(s models.OrderStatus) []models.OrderStatus {
	var out []models.OrderStatus
	if next, ok := s.Next(); ok {
		out = append(out, next)
	}
	if s.CanTransitionTo(models.OrderStatusCancelled) {
		out = append(out, models.OrderStatusCancelled)
	}
	return out
}
