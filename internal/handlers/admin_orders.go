package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/orders"
	"github.com/askmatsya/bolt/internal/store"
)

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, offset := pagination(r)
	status := models.OrderStatus(r.URL.Query().Get("status"))
	if !status.Valid() {
		status = ""
	}
	filter := store.OrderFilter{
		Status: status,
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
	}

	total, err := h.Store.CountOrders(r.Context(), filter)
	if err != nil {
		logFor("admin").Error().Err(err).Msg("Failed to count orders")
		http.Error(w, "Error fetching total order count", http.StatusInternalServerError)
		return
	}
	filter.Limit, filter.Offset = adminPageSize, offset
	list, err := h.Store.ListOrders(r.Context(), filter)
	if err != nil {
		logFor("admin").Error().Err(err).Msg("Failed to list orders")
		http.Error(w, "Error fetching orders", http.StatusInternalServerError)
		return
	}

	h.page(w, r, "admin_orders.html", "Orders", map[string]any{
		"Orders":      list,
		"Statuses":    models.AllOrderStatuses,
		"Status":      status,
		"Search":      filter.Search,
		"CurrentPage": page,
		"TotalPages":  totalPages(total),
	})
}

// UpdateOrderStatus moves an order through the workflow. Skips and moves
// out of delivered or cancelled are refused.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("id")
	next := models.OrderStatus(r.FormValue("status"))

	order, err := h.Orders.Transition(r.Context(), id, next)
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		h.done(w, r, "/admin/orders", err, "Order not found.")
	case errors.Is(err, orders.ErrInvalidTransition):
		h.done(w, r, "/admin/orders", err, "That status change is not allowed.")
	case err != nil:
		h.done(w, r, "/admin/orders", err, "Error updating status.")
	default:
		h.done(w, r, "/admin/orders", nil, "Order #"+order.ShortRef()+" is now "+string(order.Status)+".")
	}
}
