package ui

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	custommw "github.com/grindngainz15/fronted/internal/storefront/httpserver/middleware"
	"github.com/grindngainz15/fronted/internal/storefront/orders"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/templates"
)

// Orders lists the shopper's orders.
func (h *Handlers) Orders(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	list, err := h.orders.List(r.Context(), id)
	page := templates.OrdersPage{Chrome: h.chrome(r, "My Orders")}
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "orders: list failed", err)
		page.LoadError = h.failureMessage(r, err, "orders.load_failed")
	} else {
		h.tracker.OverlayAll(id, list)
		page.Orders = list
	}
	h.render(w, r, "orders", page)
}

// Order renders one order with the actions its status allows.
func (h *Handlers) Order(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	h.render(w, r, "order", h.orderPage(r, order))
}

func (h *Handlers) loadOrder(w http.ResponseWriter, r *http.Request) (*orders.Order, bool) {
	id := identity(r)
	order, err := h.orders.Get(r.Context(), id, chi.URLParam(r, "orderID"))
	if err != nil {
		if handleAuthError(w, r, err) {
			return nil, false
		}
		if errors.Is(err, backend.ErrNotFound) {
			h.errorPage(w, r, http.StatusNotFound, h.t(r, "errors.not_found"))
			return nil, false
		}
		h.logFailure(r, "orders: get failed", err)
		h.errorPage(w, r, http.StatusBadGateway, h.failureMessage(r, err, "orders.load_failed"))
		return nil, false
	}
	h.tracker.Overlay(id, order)
	return order, true
}

func (h *Handlers) orderPage(r *http.Request, order *orders.Order) templates.OrderPage {
	return templates.OrderPage{Chrome: h.chrome(r, "Order"), Order: order, Reasons: orders.CancelReasons}
}

// CancelOrder cancels a PLACED order with the chosen reason.
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	if !order.CanCancel() {
		h.actionNotAllowed(w, r, order)
		return
	}

	choice, other := r.FormValue("reason"), r.FormValue("other_reason")
	reason, err := orders.ResolveCancelReason(choice, other)
	if err == nil {
		err = h.tracker.Cancel(r.Context(), identity(r), order, reason)
	}
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		if errors.Is(err, orders.ErrActionNotAllowed) {
			h.actionNotAllowed(w, r, order)
			return
		}
		h.logFailure(r, "orders: cancel failed", err)
		page := h.orderPage(r, order)
		page.Reason, page.Other = choice, other
		page.Error = h.failureMessage(r, err, "orders.cancel_failed")
		h.orderResponse(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, "orders.cancelled"))
	h.orderResponse(w, r, http.StatusOK, h.orderPage(r, order))
}

// RequestReturn asks for a return on a DELIVERED order.
func (h *Handlers) RequestReturn(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	err := h.tracker.RequestReturn(r.Context(), identity(r), order)
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		if errors.Is(err, orders.ErrActionNotAllowed) {
			h.actionNotAllowed(w, r, order)
			return
		}
		h.logFailure(r, "orders: return failed", err)
		page := h.orderPage(r, order)
		page.Error = h.failureMessage(r, err, "orders.return_failed")
		h.orderResponse(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, "orders.return_requested"))
	h.orderResponse(w, r, http.StatusOK, h.orderPage(r, order))
}

// actionNotAllowed answers 409 with the order as it currently stands.
func (h *Handlers) actionNotAllowed(w http.ResponseWriter, r *http.Request, order *orders.Order) {
	page := h.orderPage(r, order)
	page.Error = h.t(r, "orders.action_not_allowed")
	h.orderResponse(w, r, http.StatusConflict, page)
}

func (h *Handlers) orderResponse(w http.ResponseWriter, r *http.Request, status int, page templates.OrderPage) {
	if custommw.IsHTMXRequest(r.Context()) {
		// htmx leaves 4xx bodies unswapped, so rejected actions answer 200 with the error inline.
		h.fragment(w, r, "order", "order-panel", page)
		return
	}
	if status == http.StatusOK {
		h.requeue(r, page.Flashes)
		redirect(w, r, "/orders/"+page.Order.ID)
		return
	}
	h.renderStatus(w, r, status, "order", page)
}
