package contracts

import (
	"context"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// ProfileSource is one lookup-by-id store for user display data. The
// resolver tries sources in priority order; a source reports "not here"
// with (nil, nil) rather than an error.
type ProfileSource interface {
	// Name identifies the source in logs.
	Name() string
	FetchProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// ListingSource reads a listing by id, used only to snapshot its title
// into a newly created conversation.
type ListingSource interface {
	FetchListing(ctx context.Context, listingID string) (*domain.Listing, error)
}
