// Package auth exchanges credentials with the backend for a session identity.
package auth

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"sync"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// ErrInvalidCredentials is returned when the backend refuses an email/password pair.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Credentials is the login form.
type Credentials struct {
	Email    string
	Password string
}

// Validate requires both fields.
func (c Credentials) Validate() error {
	verr := &backend.ValidationError{}
	if strings.TrimSpace(c.Email) == "" {
		verr.Add("email", "Enter email")
	}
	if c.Password == "" {
		verr.Add("password", "Enter password")
	}
	return verr.OrNil()
}

// Registration is the sign-up form.
type Registration struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// Normalize trims the text fields; the password is sent as typed.
func (r Registration) Normalize() Registration {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Mobile = strings.TrimSpace(r.Mobile)
	return r
}

// Validate applies the sign-up form rules.
func (r Registration) Validate() error {
	verr := &backend.ValidationError{}
	if r.Name == "" {
		verr.Add("name", "Enter name")
	}
	switch {
	case r.Email == "":
		verr.Add("email", "Enter email")
	case !validEmail(r.Email):
		verr.Add("email", "Enter valid email")
	}
	if r.Password == "" {
		verr.Add("password", "Enter password")
	}
	if r.Mobile == "" {
		verr.Add("mobile", "Enter Number")
	}
	return verr.OrNil()
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Service signs shoppers and admins in.
type Service interface {
	Login(ctx context.Context, creds Credentials) (session.Identity, error)
	Register(ctx context.Context, reg Registration) error
}

// HTTPService implements Service against /users/login and /users/create.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service backed by the shared backend client.
func NewHTTPService(client *backend.Client) *HTTPService {
	return &HTTPService{client: client}
}

type loginResponse struct {
	Data struct {
		Token string `json:"token"`
		User  struct {
			ID     string `json:"_id"`
			Name   string `json:"name"`
			Role   string `json:"role"`
			Email  string `json:"email"`
			Mobile string `json:"mobile"`
		} `json:"user"`
	} `json:"data"`
}

// Login posts the credentials and maps data.token and data.user onto an Identity.
// A 401 from the backend becomes ErrInvalidCredentials rather than a session expiry.
func (s *HTTPService) Login(ctx context.Context, creds Credentials) (session.Identity, error) {
	if err := creds.Validate(); err != nil {
		return session.Identity{}, err
	}
	var resp loginResponse
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/users/login",
		JSON: struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}{strings.TrimSpace(creds.Email), creds.Password},
	}, &resp)
	if errors.Is(err, backend.ErrUnauthorized) {
		return session.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return session.Identity{}, err
	}
	if resp.Data.Token == "" {
		return session.Identity{}, ErrInvalidCredentials
	}
	u := resp.Data.User
	return session.Identity{
		Token:  resp.Data.Token,
		UserID: u.ID,
		Name:   u.Name,
		Role:   strings.ToLower(strings.TrimSpace(u.Role)),
		Email:  u.Email,
		Mobile: u.Mobile,
	}, nil
}

// Register creates an account. The shopper signs in separately afterwards.
func (s *HTTPService) Register(ctx context.Context, reg Registration) error {
	reg = reg.Normalize()
	if err := reg.Validate(); err != nil {
		return err
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/users/create",
		JSON: struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Mobile   string `json:"mobile"`
		}{reg.Name, reg.Email, reg.Password, reg.Mobile},
	}, nil)
}

// StaticService accepts a fixed set of accounts for local development and tests.
type StaticService struct {
	mu       sync.Mutex
	accounts map[string]staticAccount
	seq      int
}

type staticAccount struct {
	password string
	identity session.Identity
}

// NewStaticService returns a StaticService with a development admin and shopper.
// Both use the password "password".
func NewStaticService() *StaticService {
	s := &StaticService{accounts: make(map[string]staticAccount)}
	s.accounts["admin@onekart.test"] = staticAccount{password: "password", identity: session.Identity{
		Token: "dev-admin-token", UserID: "a1", Name: "Store Admin", Role: session.RoleAdmin, Email: "admin@onekart.test",
	}}
	s.accounts["asha@onekart.test"] = staticAccount{password: "password", identity: session.Identity{
		Token: "dev-user-token", UserID: "u1", Name: "Asha", Role: "user", Email: "asha@onekart.test", Mobile: "9876543210",
	}}
	return s
}

func (s *StaticService) Login(_ context.Context, creds Credentials) (session.Identity, error) {
	if err := creds.Validate(); err != nil {
		return session.Identity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[strings.ToLower(strings.TrimSpace(creds.Email))]
	if !ok || acct.password != creds.Password {
		return session.Identity{}, ErrInvalidCredentials
	}
	return acct.identity, nil
}

func (s *StaticService) Register(_ context.Context, reg Registration) error {
	reg = reg.Normalize()
	if err := reg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[reg.Email]; exists {
		return &backend.BusinessError{Message: "User already exists"}
	}
	s.seq++
	userID := "u-new-" + strconv.Itoa(s.seq)
	s.accounts[reg.Email] = staticAccount{password: reg.Password, identity: session.Identity{
		Token: "dev-token-" + userID, UserID: userID, Name: reg.Name, Role: "user", Email: reg.Email, Mobile: reg.Mobile,
	}}
	return nil
}
