package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/grindngainz15/fronted/internal/storefront/auth"
	custommw "github.com/grindngainz15/fronted/internal/storefront/httpserver/middleware"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/templates"
)

// LoginForm renders the sign-in page. Signed-in visitors go straight to next.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	next := custommw.SafeNext(r.URL.Query().Get("next"))
	if identity(r).Authenticated() {
		redirect(w, r, next)
		return
	}
	h.render(w, r, "login", templates.LoginPage{Chrome: h.chrome(r, "Login"), Next: next})
}

// Login exchanges credentials for a backend token held in the session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	creds := auth.Credentials{Email: strings.TrimSpace(r.FormValue("email")), Password: r.FormValue("password")}
	next := custommw.SafeNext(r.FormValue("next"))

	id, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		h.logFailure(r, "auth: login failed", err)
		page := templates.LoginPage{Chrome: h.chrome(r, "Login"), Email: creds.Email, Next: next}
		page.Errors = fieldErrors(err)
		if page.Errors == nil {
			msg := h.failureMessage(r, err, "auth.login_failed")
			if errors.Is(err, auth.ErrInvalidCredentials) {
				msg = h.t(r, "auth.invalid_credentials")
			}
			page.Errors = map[string]string{"form": msg}
		}
		h.renderStatus(w, r, http.StatusUnauthorized, "login", page)
		return
	}

	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok {
		h.errorPage(w, r, http.StatusInternalServerError, h.t(r, "errors.generic"))
		return
	}
	sess.SignIn(id)
	h.flash(r, session.FlashSuccess, h.t(r, "auth.login_success"))
	redirect(w, r, next)
}

// RegisterForm renders the sign-up page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register", templates.RegisterPage{Chrome: h.chrome(r, "Register")})
}

// Register creates an account and sends the visitor to sign in.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	reg := auth.Registration{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Mobile:   r.FormValue("mobile"),
	}.Normalize()

	if err := h.auth.Register(r.Context(), reg); err != nil {
		h.logFailure(r, "auth: register failed", err)
		page := templates.RegisterPage{Chrome: h.chrome(r, "Register"), Name: reg.Name, Email: reg.Email, Mobile: reg.Mobile}
		page.Errors = fieldErrors(err)
		if page.Errors == nil {
			page.Errors = map[string]string{"form": h.failureMessage(r, err, "auth.register_failed")}
		}
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "register", page)
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, "auth.register_success"))
	redirect(w, r, custommw.DefaultLoginPath)
}

// Logout drops the session; the next request starts a fresh one.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		if id := sess.DraftID(); id != "" {
			_ = h.drafts.Delete(r.Context(), id)
		}
		h.quickBuy.Clear(sess.ID())
		sess.Destroy()
	}
	redirect(w, r, "/")
}
