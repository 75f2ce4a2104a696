package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// StaticService keeps profiles in memory for local development and tests.
type StaticService struct {
	mu       sync.Mutex
	profiles map[string]*Profile
	seq      int
}

// NewStaticService returns a StaticService seeded with the given profiles.
func NewStaticService(profiles ...Profile) *StaticService {
	svc := &StaticService{profiles: make(map[string]*Profile)}
	for _, p := range profiles {
		copied := p
		copied.Addresses = append([]Address(nil), p.Addresses...)
		svc.profiles[p.ID] = &copied
	}
	return svc
}

func (s *StaticService) Get(_ context.Context, id session.Identity) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return clone(p), nil
}

func (s *StaticService) Update(_ context.Context, id session.Identity, update Update) (*Profile, error) {
	update = update.Normalize()
	if err := update.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	p.Name = update.Name
	p.Phone = update.Phone
	p.Gender = update.Gender
	p.DateOfBirth = update.DateOfBirth
	p.Bio = update.Bio
	return clone(p), nil
}

func (s *StaticService) SaveAddresses(_ context.Context, id session.Identity, addresses []Address) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	saved := make([]Address, len(addresses))
	for i, a := range addresses {
		if a.ID == "" {
			a.ID = s.nextID()
		}
		saved[i] = a
	}
	p.Addresses = saved
	return clone(p), nil
}

func (s *StaticService) AddAddress(_ context.Context, id session.Identity, address Address) (Address, error) {
	address = address.Normalize()
	if err := ValidateShipping(address); err != nil {
		return Address{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(id)
	if err != nil {
		return Address{}, err
	}
	address.ID = s.nextID()
	p.Addresses = append(p.Addresses, address)
	return address, nil
}

func (s *StaticService) lookup(id session.Identity) (*Profile, error) {
	if !id.Authenticated() {
		return nil, backend.ErrUnauthorized
	}
	p, ok := s.profiles[id.UserID]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return p, nil
}

func (s *StaticService) nextID() string {
	s.seq++
	return fmt.Sprintf("addr-%d", s.seq)
}

func clone(p *Profile) *Profile {
	copied := *p
	copied.Addresses = append([]Address(nil), p.Addresses...)
	return &copied
}

// SampleProfiles matches the accounts of the development sign-in service.
func SampleProfiles() []Profile {
	return []Profile{
		{ID: "a1", Name: "Store Admin", Email: "admin@onekart.test", Role: "admin"},
		{
			ID: "u1", Name: "Asha", Email: "asha@onekart.test", Role: "user", Mobile: "9876543210",
			Addresses: []Address{
				{ID: "addr-home", Label: "Home", FullName: "Asha", Phone: "9876543210", Street: "12 MG Road", City: "Bengaluru", State: "KA", PostalCode: "560001", Country: DefaultCountry, IsDefault: true},
				{ID: "addr-work", Label: "Work", Street: "4 Residency Road", City: "Bengaluru", State: "KA", PostalCode: "560025", Country: DefaultCountry},
			},
		},
	}
}
