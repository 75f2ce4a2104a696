// Package users backs the admin user directory and the shopper wishlist.
package users

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// DefaultPageSize is the admin users table page size.
const DefaultPageSize = 10

// User is one row of the admin directory.
type User struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Mobile    string     `json:"mobile,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// StatusLabel renders the active flag.
func (u User) StatusLabel() string {
	if u.IsActive {
		return "Active"
	}
	return "Inactive"
}

// Query filters the directory.
type Query struct {
	Page   int
	Size   int
	Search string
}

// Page is one page of users.
type Page struct {
	Users []User
	Total int
	Page  int
}

// Service lists users and edits the current shopper's wishlist.
type Service interface {
	List(ctx context.Context, id session.Identity, query Query) (Page, error)
	AddToWishlist(ctx context.Context, id session.Identity, productID string) error
	RemoveFromWishlist(ctx context.Context, id session.Identity, productID string) error
}

// ToggleWishlist removes productID when it is currently wishlisted and adds it otherwise.
// It returns the new state.
func ToggleWishlist(ctx context.Context, svc Service, id session.Identity, productID string, wishlisted bool) (bool, error) {
	if wishlisted {
		return false, svc.RemoveFromWishlist(ctx, id, productID)
	}
	return true, svc.AddToWishlist(ctx, id, productID)
}

// HTTPService implements Service against the users endpoints.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service backed by the shared backend client.
func NewHTTPService(client *backend.Client) *HTTPService {
	return &HTTPService{client: client}
}

// List reads POST /users/list, whose users sit under data.users.
func (s *HTTPService) List(ctx context.Context, id session.Identity, query Query) (Page, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Size < 1 {
		query.Size = DefaultPageSize
	}
	var resp struct {
		Data struct {
			Users []User `json:"users"`
			Total int    `json:"total"`
		} `json:"data"`
	}
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/users/list",
		Token:  id.Token,
		JSON: struct {
			Page   int    `json:"page"`
			Size   int    `json:"size"`
			Search string `json:"search"`
		}{query.Page, query.Size, strings.TrimSpace(query.Search)},
	}, &resp)
	if err != nil {
		return Page{}, err
	}
	total := resp.Data.Total
	if total == 0 {
		total = len(resp.Data.Users)
	}
	return Page{Users: resp.Data.Users, Total: total, Page: query.Page}, nil
}

// AddToWishlist posts {productId}.
func (s *HTTPService) AddToWishlist(ctx context.Context, id session.Identity, productID string) error {
	if !backend.ValidID(productID) {
		return backend.NewValidationError("productId", "Missing product")
	}
	if !id.Authenticated() {
		return backend.ErrUnauthorized
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/users/wishlist",
		Token:  id.Token,
		JSON: struct {
			ProductID string `json:"productId"`
		}{productID},
	}, nil)
}

// RemoveFromWishlist deletes /users/wishlist/{productId}.
func (s *HTTPService) RemoveFromWishlist(ctx context.Context, id session.Identity, productID string) error {
	if !backend.ValidID(productID) {
		return backend.NewValidationError("productId", "Missing product")
	}
	if !id.Authenticated() {
		return backend.ErrUnauthorized
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodDelete,
		Path:   "/users/wishlist/" + productID,
		Token:  id.Token,
	}, nil)
}

// StaticService keeps users and wishlists in memory.
type StaticService struct {
	mu        sync.Mutex
	users     []User
	wishlists map[string]map[string]bool
}

// NewStaticService returns a StaticService listing the given users.
func NewStaticService(list ...User) *StaticService {
	return &StaticService{users: append([]User(nil), list...), wishlists: make(map[string]map[string]bool)}
}

// SampleUsers returns an admin and a shopper.
func SampleUsers() []User {
	joined := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)
	return []User{
		{ID: "a1", Name: "Store Admin", Email: "admin@onekart.test", Role: session.RoleAdmin, IsActive: true, CreatedAt: &joined},
		{ID: "u1", Name: "Asha", Email: "asha@onekart.test", Role: "user", IsActive: true, CreatedAt: &joined},
		{ID: "u2", Name: "Ravi", Email: "ravi@onekart.test", Role: "user", CreatedAt: &joined},
	}
}

func (s *StaticService) List(_ context.Context, id session.Identity, query Query) (Page, error) {
	if !id.Authenticated() {
		return Page{}, backend.ErrUnauthorized
	}
	if !id.IsAdmin() {
		return Page{}, &backend.HTTPError{Status: http.StatusForbidden, Message: "Admin access required"}
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Size < 1 {
		query.Size = DefaultPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(query.Search))
	var matched []User
	for _, u := range s.users {
		if search == "" || strings.Contains(strings.ToLower(u.Name), search) || strings.Contains(strings.ToLower(u.Email), search) {
			matched = append(matched, u)
		}
	}
	total := len(matched)
	start := min((query.Page-1)*query.Size, total)
	end := min(start+query.Size, total)
	return Page{Users: matched[start:end], Total: total, Page: query.Page}, nil
}

func (s *StaticService) AddToWishlist(_ context.Context, id session.Identity, productID string) error {
	return s.setWishlisted(id, productID, true)
}

func (s *StaticService) RemoveFromWishlist(_ context.Context, id session.Identity, productID string) error {
	return s.setWishlisted(id, productID, false)
}

// Wishlisted reports whether productID is on the shopper's wishlist.
func (s *StaticService) Wishlisted(userID, productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlists[userID][productID]
}

func (s *StaticService) setWishlisted(id session.Identity, productID string, on bool) error {
	if productID == "" {
		return backend.NewValidationError("productId", "Missing product")
	}
	if !id.Authenticated() {
		return backend.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.wishlists[id.UserID]
	if set == nil {
		set = make(map[string]bool)
		s.wishlists[id.UserID] = set
	}
	if on {
		set[productID] = true
	} else {
		delete(set, productID)
	}
	return nil
}
