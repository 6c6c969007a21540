package memory

import (
	"context"
	"sync"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// ProfileSource is an in-memory lookup-by-id profile store. Two
// instances stand in for the "profiles" and "users" collections.
type ProfileSource struct {
	name     string
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

func NewProfileSource(name string) *ProfileSource {
	return &ProfileSource{
		name:     name,
		profiles: make(map[string]domain.Profile),
	}
}

func (s *ProfileSource) Name() string { return s.name }

func (s *ProfileSource) Put(p domain.Profile) {
	s.mu.Lock()
	s.profiles[p.ID] = p
	s.mu.Unlock()
}

func (s *ProfileSource) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListingSource is an in-memory listing-title lookup.
type ListingSource struct {
	mu       sync.RWMutex
	listings map[string]domain.Listing
}

func NewListingSource() *ListingSource {
	return &ListingSource{listings: make(map[string]domain.Listing)}
}

func (s *ListingSource) Put(l domain.Listing) {
	s.mu.Lock()
	s.listings[l.ID] = l
	s.mu.Unlock()
}

func (s *ListingSource) FetchListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[listingID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}
