package ui

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	custommw "github.com/grindngainz15/fronted/internal/storefront/httpserver/middleware"
	"github.com/grindngainz15/fronted/internal/storefront/profile"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/templates"
)

func (h *Handlers) loadProfile(w http.ResponseWriter, r *http.Request) (*profile.Profile, bool) {
	p, err := h.profile.Get(r.Context(), identity(r))
	if err != nil {
		if handleAuthError(w, r, err) {
			return nil, false
		}
		h.logFailure(r, "profile: load failed", err)
		h.errorPage(w, r, http.StatusBadGateway, h.failureMessage(r, err, "errors.generic"))
		return nil, false
	}
	return p, true
}

func (h *Handlers) profilePage(r *http.Request, p *profile.Profile, editIndex int) templates.ProfilePage {
	page := templates.ProfilePage{
		Chrome:    h.chrome(r, "Profile"),
		Profile:   p,
		Genders:   profile.Genders,
		EditIndex: -1,
		Address:   profile.Address{Country: profile.DefaultCountry},
	}
	if editIndex >= 0 && editIndex < len(p.Addresses) {
		page.EditIndex = editIndex
		page.Address = p.Addresses[editIndex]
	}
	return page
}

// Profile renders the profile form and address book. ?edit=i loads address i
// into the address form.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	edit, err := strconv.Atoi(r.URL.Query().Get("edit"))
	if err != nil {
		edit = -1
	}
	h.render(w, r, "profile", h.profilePage(r, p, edit))
}

// UpdateProfile saves the editable fields and refreshes the name and mobile
// kept in the session.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	update := profile.Update{
		Name:        r.FormValue("name"),
		Phone:       r.FormValue("phone"),
		Gender:      r.FormValue("gender"),
		DateOfBirth: r.FormValue("dateOfBirth"),
		Bio:         r.FormValue("bio"),
	}.Normalize()

	err := update.Validate()
	var updated *profile.Profile
	if err == nil {
		updated, err = h.profile.Update(r.Context(), identity(r), update)
	}
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "profile: update failed", err)
		p, ok := h.loadProfile(w, r)
		if !ok {
			return
		}
		p.Name, p.Phone, p.Gender, p.DateOfBirth, p.Bio = update.Name, update.Phone, update.Gender, update.DateOfBirth, update.Bio
		page := h.profilePage(r, p, -1)
		page.Errors = fieldErrors(err)
		if page.Errors == nil {
			page.Errors = map[string]string{"name": h.failureMessage(r, err, "profile.update_failed")}
		}
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "profile", page)
		return
	}

	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.UpdateIdentity(func(id *session.Identity) {
			id.Name = updated.Name
			if phone := firstNonEmpty(updated.Phone, updated.Mobile); phone != "" {
				id.Mobile = phone
			}
		})
	}
	h.flash(r, session.FlashSuccess, h.t(r, "profile.updated"))
	redirect(w, r, "/profile")
}

// SaveAddress creates or replaces one address and resends the whole set.
func (h *Handlers) SaveAddress(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		index = -1
	}
	address := addressFromForm(r).Normalize()

	err = profile.ValidateSaved(address)
	if err == nil {
		_, err = h.profile.SaveAddresses(r.Context(), identity(r), profile.Upsert(p.Addresses, address, index))
	}
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "profile: save address failed", err)
		page := h.profilePage(r, p, index)
		page.Address = address
		page.Errors = fieldErrors(err)
		if page.Errors == nil {
			page.Errors = map[string]string{"street": h.failureMessage(r, err, "profile.address_failed")}
		}
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "profile", page)
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, "profile.address_saved"))
	redirect(w, r, "/profile")
}

// SetDefaultAddress flags one address as the default.
func (h *Handlers) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	h.mutateAddresses(w, r, profile.SetDefault, "profile.default_set")
}

// ConfirmDeleteAddress is the no-script confirmation step.
func (h *Handlers) ConfirmDeleteAddress(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	h.render(w, r, "confirm", templates.ConfirmPage{
		Chrome:  h.chrome(r, "Delete address"),
		Heading: "Delete address",
		Message: "Delete this address?",
		Action:  "/profile/addresses/" + index + "/delete",
		Cancel:  "/profile",
	})
}

// DeleteAddress removes one address.
func (h *Handlers) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	h.mutateAddresses(w, r, profile.RemoveAt, "profile.address_deleted")
}

func (h *Handlers) mutateAddresses(w http.ResponseWriter, r *http.Request, mutate func([]profile.Address, int) []profile.Address, successKey string) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		h.errorPage(w, r, http.StatusNotFound, h.t(r, "errors.not_found"))
		return
	}
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	if index >= len(p.Addresses) {
		h.errorPage(w, r, http.StatusNotFound, h.t(r, "errors.not_found"))
		return
	}
	if _, err := h.profile.SaveAddresses(r.Context(), identity(r), mutate(p.Addresses, index)); err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "profile: address update failed", err)
		h.flash(r, session.FlashError, h.failureMessage(r, err, "profile.address_failed"))
		redirect(w, r, "/profile")
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, successKey))
	redirect(w, r, "/profile")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
