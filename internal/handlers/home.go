package handlers

import (
	"net/http"

	"github.com/askmatsya/bolt/internal/catalog"
	"github.com/askmatsya/bolt/internal/matcher"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/gorilla/sessions"
)

type HomeHandler struct {
	Catalog         *catalog.Cache
	Templates       *TemplateCache
	SessionStore    sessions.Store
	DefaultLanguage models.Language
}

func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	lang := models.ParseLanguage(r.URL.Query().Get("lang"), h.DefaultLanguage)
	session, _ := h.SessionStore.Get(r, publicSession)
	visitorID(session)

	data := map[string]any{
		"Title":    "",
		"Lang":     lang,
		"Greeting": matcher.Greeting(lang),
		"Products": h.Catalog.Load(r.Context()),
		"Flashes":  GetFlash(session),
	}
	session.Save(r, w)
	h.Templates.Render(w, "home.html", data)
}
