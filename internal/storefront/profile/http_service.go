package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

const profilePath = "/users/profile"

// HTTPService implements Service against POST /users/profile, whose meaning depends
// on which fields the body carries.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service backed by the shared backend client.
func NewHTTPService(client *backend.Client) *HTTPService {
	return &HTTPService{client: client}
}

type profileResponse struct {
	Data    *Profile `json:"data"`
	Address *Address `json:"address"`
}

type profileWrite struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Gender      string    `json:"gender"`
	DateOfBirth string    `json:"dateOfBirth"`
	Bio         string    `json:"bio"`
	Addresses   []Address `json:"addresses"`
}

func (s *HTTPService) Get(ctx context.Context, id session.Identity) (*Profile, error) {
	resp, err := s.post(ctx, id, map[string]string{"userId": id.UserID})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, backend.ErrNotFound
	}
	return resp.Data, nil
}

func (s *HTTPService) Update(ctx context.Context, id session.Identity, update Update) (*Profile, error) {
	update = update.Normalize()
	if err := update.Validate(); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.post(ctx, id, profileWrite{
		UserID:      id.UserID,
		Name:        update.Name,
		Phone:       update.Phone,
		Gender:      update.Gender,
		DateOfBirth: update.DateOfBirth,
		Bio:         update.Bio,
		Addresses:   current.Addresses,
	})
	if err != nil {
		return nil, err
	}
	return s.profileOrRefetch(ctx, id, resp)
}

func (s *HTTPService) SaveAddresses(ctx context.Context, id session.Identity, addresses []Address) (*Profile, error) {
	if addresses == nil {
		addresses = []Address{}
	}
	resp, err := s.post(ctx, id, map[string]any{"userId": id.UserID, "addresses": addresses})
	if err != nil {
		return nil, err
	}
	return s.profileOrRefetch(ctx, id, resp)
}

func (s *HTTPService) AddAddress(ctx context.Context, id session.Identity, address Address) (Address, error) {
	address = address.Normalize()
	if err := ValidateShipping(address); err != nil {
		return Address{}, err
	}
	resp, err := s.post(ctx, id, map[string]any{"userId": id.UserID, "address": address})
	if err != nil {
		return Address{}, err
	}
	if resp.Address == nil {
		return Address{}, errors.New("profile: backend did not return the saved address")
	}
	return *resp.Address, nil
}

func (s *HTTPService) profileOrRefetch(ctx context.Context, id session.Identity, resp *profileResponse) (*Profile, error) {
	if resp.Data != nil {
		return resp.Data, nil
	}
	return s.Get(ctx, id)
}

func (s *HTTPService) post(ctx context.Context, id session.Identity, body any) (*profileResponse, error) {
	if id.UserID == "" {
		return nil, backend.ErrUnauthorized
	}
	var resp profileResponse
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   profilePath,
		Token:  id.Token,
		JSON:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
