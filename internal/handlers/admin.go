package handlers

import (
	"net/http"
	"strconv"

	"github.com/askmatsya/bolt/internal/catalog"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/orders"
	"github.com/askmatsya/bolt/internal/store"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

const adminPageSize = 20

// AdminHandler serves the back office. Every catalog change refreshes the
// assistant's catalog cache so shoppers see it on their next query.
type AdminHandler struct {
	Store        *store.Store
	Catalog      *catalog.Cache
	Orders       *orders.Service
	SessionStore sessions.Store
	Templates    *TemplateCache
	UploadDir    string
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.GetDashboardStats(r.Context())
	if err != nil {
		logFor("admin").Error().Err(err).Msg("Failed to load dashboard stats")
		http.Error(w, "Error fetching stats", http.StatusInternalServerError)
		return
	}

	session, _ := h.SessionStore.Get(r, adminSession)
	data := map[string]any{
		"Title":    "Dashboard",
		"Stats":    stats,
		"Statuses": models.AllOrderStatuses,
		"Flashes":  GetFlash(session),
	}
	session.Save(r, w) // Save session to clear flashes
	h.Templates.Render(w, "admin.html", data)
}

// page renders the common admin page fields around extra.
func (h *AdminHandler) page(w http.ResponseWriter, r *http.Request, name, title string, extra map[string]any) {
	session, _ := h.SessionStore.Get(r, adminSession)
	data := map[string]any{
		"Title":     title,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	for k, v := range extra {
		data[k] = v
	}
	session.Save(r, w)
	h.Templates.Render(w, name, data)
}

// done flashes msg and redirects; a nil error means success.
func (h *AdminHandler) done(w http.ResponseWriter, r *http.Request, url string, err error, msg string) {
	session, _ := h.SessionStore.Get(r, adminSession)
	if err != nil {
		logFor("admin").Error().Err(err).Str("path", r.URL.Path).Msg(msg)
		session.AddFlash(FlashMessage{Type: "error", Message: msg})
	} else {
		session.AddFlash(FlashMessage{Type: "success", Message: msg})
	}
	redirect(w, r, session, url)
}

func (h *AdminHandler) invalid(w http.ResponseWriter, r *http.Request, url string, fields map[string]string) {
	session, _ := h.SessionStore.Get(r, adminSession)
	flashErrors(session, fields)
	redirect(w, r, session, url)
}

// pagination reads ?page= and returns the page number and offset.
func pagination(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return page, (page - 1) * adminPageSize
}

func totalPages(total int) int {
	pages := (total + adminPageSize - 1) / adminPageSize
	if pages == 0 { // Handle case with no rows
		pages = 1
	}
	return pages
}
