package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/askmatsya/bolt/internal/catalog"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/orders"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

// OrderHandler serves the public order form and confirmation page.
type OrderHandler struct {
	Catalog         *catalog.Cache
	Orders          *orders.Service
	Templates       *TemplateCache
	SessionStore    sessions.Store
	DefaultLanguage models.Language
}

func (h *OrderHandler) OrderForm(w http.ResponseWriter, r *http.Request) {
	product, ok := h.Catalog.Lookup(r.Context(), r.URL.Query().Get("product"))
	if !ok {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	session, _ := h.SessionStore.Get(r, publicSession)
	data := map[string]any{
		"Title":     product.Name,
		"Lang":      models.ParseLanguage(r.URL.Query().Get("lang"), h.DefaultLanguage),
		"Product":   product,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
		"Values":    takeForm(session),
	}
	session.Save(r, w)
	h.Templates.Render(w, "order.html", data)
}

func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, publicSession)

	if err := r.ParseForm(); err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid form data."})
		redirect(w, r, session, "/")
		return
	}

	productID := r.FormValue("product_id")
	formURL := "/order?product=" + url.QueryEscape(productID)
	req := orders.PlaceRequest{
		SessionID:        visitorID(session),
		ProductID:        productID,
		CustomerName:     r.FormValue("customer_name"),
		CustomerPhone:    r.FormValue("customer_phone"),
		CustomerAddress:  r.FormValue("customer_address"),
		PreferredContact: models.ContactChannel(r.FormValue("preferred_contact")),
		Notes:            r.FormValue("order_notes"),
		Language:         models.Language(r.FormValue("language")),
		UserAgent:        r.UserAgent(),
		IPAddress:        clientIP(r),
	}

	placement, err := h.Orders.Place(r.Context(), req)
	var verr *orders.ValidationError
	switch {
	case errors.As(err, &verr):
		flashErrors(session, verr.Fields)
		session.Values[formKey] = FormValues{
			"customer_name":     req.CustomerName,
			"customer_phone":    req.CustomerPhone,
			"customer_address":  req.CustomerAddress,
			"preferred_contact": string(req.PreferredContact),
			"order_notes":       req.Notes,
		}
		redirect(w, r, session, formURL)
		return
	case errors.Is(err, orders.ErrProductNotFound):
		session.AddFlash(FlashMessage{Type: "error", Message: "That product is no longer available."})
		redirect(w, r, session, "/")
		return
	case err != nil:
		logFor("orders").Error().Err(err).Str("product_id", productID).Msg("Failed to place order")
		session.AddFlash(FlashMessage{Type: "error", Message: "Failed to place order. Please try again."})
		redirect(w, r, session, formURL)
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: "Order placed successfully! We'll be in touch within 24 hours."})
	redirect(w, r, session, "/order/"+placement.Order.ID+"?lang="+string(models.ParseLanguage(string(req.Language), h.DefaultLanguage)))
}

func (h *OrderHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	lang := models.ParseLanguage(r.URL.Query().Get("lang"), h.DefaultLanguage)
	receipt, err := h.Orders.Receipt(r.Context(), r.PathValue("id"), lang)
	if errors.Is(err, orders.ErrOrderNotFound) {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logFor("orders").Error().Err(err).Msg("Failed to load order")
		http.Error(w, "Error fetching order", http.StatusInternalServerError)
		return
	}

	session, _ := h.SessionStore.Get(r, publicSession)
	data := map[string]any{
		"Title":   "Order #" + receipt.Ref,
		"Lang":    lang,
		"Order":   receipt.Order,
		"Receipt": receipt,
		"Flashes": GetFlash(session),
	}
	session.Save(r, w)
	h.Templates.Render(w, "order_confirmation.html", data)
}
