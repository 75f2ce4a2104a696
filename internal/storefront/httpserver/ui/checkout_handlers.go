package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/checkout"
	custommw "github.com/grindngainz15/fronted/internal/storefront/httpserver/middleware"
	"github.com/grindngainz15/fronted/internal/storefront/profile"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/templates"
)

// loadDraft returns the session's checkout draft. When none is usable it
// redirects to the cart and reports false.
func (h *Handlers) loadDraft(w http.ResponseWriter, r *http.Request) (*session.Session, checkout.Draft, bool) {
	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok || sess.DraftID() == "" {
		h.flash(r, session.FlashError, h.t(r, "checkout.draft_missing"))
		redirect(w, r, "/cart")
		return nil, checkout.Draft{}, false
	}
	draft, err := h.drafts.Load(r.Context(), sess.DraftID())
	if err == nil && draft.UserID != sess.Identity().UserID {
		err = checkout.ErrDraftNotFound
	}
	if err != nil {
		if !errors.Is(err, checkout.ErrDraftNotFound) {
			h.logFailure(r, "checkout: load draft failed", err)
		}
		sess.SetDraftID("")
		h.flash(r, session.FlashError, h.t(r, "checkout.draft_missing"))
		redirect(w, r, "/cart")
		return nil, checkout.Draft{}, false
	}
	return sess, draft, true
}

// addresses reads the shopper's saved addresses. A failed read leaves the
// list empty; the shopper can still add one.
func (h *Handlers) addresses(r *http.Request) ([]profile.Address, error) {
	p, err := h.profile.Get(r.Context(), identity(r))
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return nil, err
		}
		h.logFailure(r, "checkout: addresses failed", err)
		return nil, nil
	}
	return p.Addresses, nil
}

func (h *Handlers) checkoutPage(r *http.Request, draft checkout.Draft, addresses []profile.Address) templates.CheckoutPage {
	return templates.CheckoutPage{
		Chrome:     h.chrome(r, "Checkout"),
		Draft:      draft,
		Addresses:  addresses,
		Payments:   checkout.PaymentOptions,
		NewAddress: profile.Address{Country: profile.DefaultCountry},
	}
}

// Checkout renders address and payment selection for the draft.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	_, draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	addresses, err := h.addresses(r)
	if handleAuthError(w, r, err) {
		return
	}
	if selected := checkout.SelectInitialAddress(addresses, draft.SelectedAddressID); selected != draft.SelectedAddressID {
		draft.SelectedAddressID = selected
		if err := h.drafts.Save(r.Context(), draft); err != nil {
			h.logFailure(r, "checkout: save draft failed", err)
		}
	}
	h.render(w, r, "checkout", h.checkoutPage(r, draft, addresses))
}

// SelectAddress records the chosen shipping address.
func (h *Handlers) SelectAddress(w http.ResponseWriter, r *http.Request) {
	_, draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	addresses, err := h.addresses(r)
	if handleAuthError(w, r, err) {
		return
	}
	if chosen, found := profile.Find(addresses, strings.TrimSpace(r.FormValue("address_id"))); found {
		draft.SelectedAddressID = chosen.ID
		if err := h.drafts.Save(r.Context(), draft); err != nil {
			h.logFailure(r, "checkout: save draft failed", err)
			h.flash(r, session.FlashError, h.t(r, "errors.generic"))
		}
	}
	redirect(w, r, "/checkout")
}

// AddAddress saves a new shipping address and selects it.
func (h *Handlers) AddAddress(w http.ResponseWriter, r *http.Request) {
	_, draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	address := addressFromForm(r).Normalize()
	if address.Country == "" {
		address.Country = profile.DefaultCountry
	}

	err := profile.ValidateShipping(address)
	var saved profile.Address
	if err == nil {
		saved, err = h.profile.AddAddress(r.Context(), identity(r), address)
	}
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "checkout: add address failed", err)
		addresses, listErr := h.addresses(r)
		if handleAuthError(w, r, listErr) {
			return
		}
		page := h.checkoutPage(r, draft, addresses)
		page.NewAddress = address
		page.Errors = fieldErrors(err)
		if page.Errors == nil {
			page.Errors = map[string]string{"address": h.failureMessage(r, err, "checkout.address_failed")}
		}
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "checkout", page)
		return
	}

	draft.SelectedAddressID = saved.ID
	if err := h.drafts.Save(r.Context(), draft); err != nil {
		h.logFailure(r, "checkout: save draft failed", err)
	}
	h.flash(r, session.FlashSuccess, h.t(r, "checkout.address_saved"))
	redirect(w, r, "/checkout")
}

// PlaceOrder submits the draft once with the chosen payment method.
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess, draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	addresses, err := h.addresses(r)
	if handleAuthError(w, r, err) {
		return
	}
	payment, err := checkout.ParsePaymentMethod(r.FormValue("payment"))
	if err != nil {
		page := h.checkoutPage(r, draft, addresses)
		page.Errors = fieldErrors(err)
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "checkout", page)
		return
	}
	draft.Payment = payment

	order, err := checkout.BuildOrder(sess.Identity(), draft, addresses)
	if err == nil {
		_, err = h.checkout.PlaceOrder(r.Context(), sess.Identity(), order)
	}
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "checkout: place order failed", err)
		// Keep the payment choice for the retry.
		if saveErr := h.drafts.Save(r.Context(), draft); saveErr != nil {
			h.logFailure(r, "checkout: save draft failed", saveErr)
		}
		page := h.checkoutPage(r, draft, addresses)
		page.Errors = map[string]string{"address": h.failureMessage(r, err, "checkout.place_failed")}
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "checkout", page)
		return
	}

	if err := h.drafts.Delete(r.Context(), draft.ID); err != nil {
		h.logFailure(r, "checkout: delete draft failed", err)
	}
	sess.SetDraftID("")
	h.flash(r, session.FlashSuccess, h.t(r, "checkout.placed"))
	redirect(w, r, "/orders")
}

func addressFromForm(r *http.Request) profile.Address {
	return profile.Address{
		Label:      r.FormValue("label"),
		FullName:   r.FormValue("fullName"),
		Phone:      r.FormValue("phone"),
		Street:     r.FormValue("street"),
		City:       r.FormValue("city"),
		State:      r.FormValue("state"),
		PostalCode: r.FormValue("postalCode"),
		Country:    r.FormValue("country"),
		IsDefault:  r.FormValue("isDefault") != "",
	}
}
