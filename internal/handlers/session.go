package handlers

import (
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	publicSession = "public-session"
	adminSession  = "admin-session"

	visitorKey = "visitor_id"
	formKey    = "form"
)

// visitorID returns the shopper's session id, creating one on first visit.
// The caller must save the session.
func visitorID(session *sessions.Session) string {
	if id, ok := session.Values[visitorKey].(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	session.Values[visitorKey] = id
	return id
}

// takeForm pops form values stashed before a redirect.
func takeForm(session *sessions.Session) FormValues {
	v, ok := session.Values[formKey].(FormValues)
	if !ok {
		return FormValues{}
	}
	delete(session.Values, formKey)
	return v
}

// flashErrors adds one error flash per field, in a stable order.
func flashErrors(session *sessions.Session, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		session.AddFlash(FlashMessage{Type: "error", Message: fields[k]})
	}
}

func redirect(w http.ResponseWriter, r *http.Request, session *sessions.Session, url string) {
	session.Save(r, w)
	http.Redirect(w, r, url, http.StatusSeeOther)
}
