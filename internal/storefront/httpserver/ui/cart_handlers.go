package ui

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/checkout"
	custommw "github.com/grindngainz15/fronted/internal/storefront/httpserver/middleware"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/templates"
)

// Cart renders the server cart. A failed read shows the empty state.
func (h *Handlers) Cart(w http.ResponseWriter, r *http.Request) {
	current, err := h.cart.Get(r.Context(), identity(r))
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "cart: load failed", err)
		h.flash(r, session.FlashError, h.failureMessage(r, err, "cart.load_failed"))
		current = &cart.Cart{}
	}
	h.render(w, r, "cart", h.cartPage(r, current))
}

func (h *Handlers) cartPage(r *http.Request, current *cart.Cart) templates.CartPage {
	return templates.CartPage{Chrome: h.chrome(r, "Cart"), Cart: current, Totals: current.Totals()}
}

// IncrementItem adds one unit.
func (h *Handlers) IncrementItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	updated, err := h.cart.UpdateQuantity(r.Context(), identity(r), productID, 1)
	h.cartMutation(w, r, updated, err, "cart.update_failed", "")
}

// DecrementItem removes one unit. At quantity one it is a no-op.
func (h *Handlers) DecrementItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	updated, err := cart.Decrement(r.Context(), h.cart, identity(r), productID)
	if errors.Is(err, cart.ErrAtMinimum) {
		h.flash(r, session.FlashInfo, h.t(r, "cart.at_minimum"))
		updated, err = nil, nil
	}
	h.cartMutation(w, r, updated, err, "cart.update_failed", "")
}

// RemoveItem deletes the line item.
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	updated, err := h.cart.Remove(r.Context(), identity(r), productID)
	h.cartMutation(w, r, updated, err, "cart.remove_failed", "cart.removed")
}

// cartMutation answers a cart write. The cart shown is the one the server
// returned; on failure, or when nothing changed, it is re-read so the page
// keeps the state before the attempt.
func (h *Handlers) cartMutation(w http.ResponseWriter, r *http.Request, updated *cart.Cart, err error, failureKey, successKey string) {
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "cart: mutation failed", err)
		msg := h.failureMessage(r, err, failureKey)
		if errors.Is(err, backend.ErrNotFound) {
			msg = h.t(r, failureKey)
		}
		h.flash(r, session.FlashError, msg)
	} else if successKey != "" {
		h.flash(r, session.FlashSuccess, h.t(r, successKey))
	}

	if !custommw.IsHTMXRequest(r.Context()) {
		redirect(w, r, "/cart")
		return
	}
	if updated == nil {
		current, getErr := h.cart.Get(r.Context(), identity(r))
		if getErr != nil {
			if handleAuthError(w, r, getErr) {
				return
			}
			h.logFailure(r, "cart: reload failed", getErr)
			current = &cart.Cart{}
		}
		updated = current
	}
	h.fragment(w, r, "cart", "cart-panel", h.cartPage(r, updated))
}

// ProceedToCheckout snapshots the cart into a draft and opens checkout.
func (h *Handlers) ProceedToCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := custommw.SessionFromContext(ctx)
	if !ok {
		redirect(w, r, "/cart")
		return
	}
	current, err := h.cart.Get(ctx, identity(r))
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "checkout: cart load failed", err)
		h.flash(r, session.FlashError, h.failureMessage(r, err, "cart.load_failed"))
		redirect(w, r, "/cart")
		return
	}
	if current.Empty() {
		h.flash(r, session.FlashError, h.t(r, "checkout.empty"))
		redirect(w, r, "/cart")
		return
	}

	if previous := sess.DraftID(); previous != "" {
		_ = h.drafts.Delete(ctx, previous)
	}
	draft := checkout.NewDraft(sess.Identity().UserID, current, h.now())
	if err := h.drafts.Save(ctx, draft); err != nil {
		h.logFailure(r, "checkout: save draft failed", err)
		h.flash(r, session.FlashError, h.t(r, "errors.generic"))
		redirect(w, r, "/cart")
		return
	}
	sess.SetDraftID(draft.ID)
	redirect(w, r, "/checkout")
}

// CartPanel renders only the cart panel, for htmx refreshes.
func (h *Handlers) CartPanel(w http.ResponseWriter, r *http.Request) {
	current, err := h.cart.Get(r.Context(), identity(r))
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "cart: panel load failed", err)
		h.flash(r, session.FlashError, h.failureMessage(r, err, "cart.load_failed"))
		current = &cart.Cart{}
	}
	h.fragment(w, r, "cart", "cart-panel", h.cartPage(r, current))
}
