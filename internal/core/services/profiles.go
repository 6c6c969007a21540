package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// FallbackLabel is what callers render when no source knows the user.
const FallbackLabel = "User"

// ProfileResolver resolves display data by trying a prioritized list of
// profile sources; the first result with a usable name wins. Results are
// cached for the lifetime of the resolver and never invalidated, so a
// conversation list can be rendered without re-fetching the same user.
// Lookup errors are swallowed: resolution degrades to "unknown", it
// never fails the caller.
type ProfileResolver struct {
	sources []contracts.ProfileSource
	log     *slog.Logger

	mu    sync.Mutex
	cache map[string]*domain.Profile
}

func NewProfileResolver(log *slog.Logger, sources ...contracts.ProfileSource) *ProfileResolver {
	return &ProfileResolver{
		sources: sources,
		log:     log,
		cache:   make(map[string]*domain.Profile),
	}
}

// Resolve returns the best profile for userID, nil when no source has
// one. Only hits are cached; a miss is retried on the next call.
func (r *ProfileResolver) Resolve(ctx context.Context, userID string) *domain.Profile {
	if userID == "" {
		return nil
	}
	r.mu.Lock()
	if p, ok := r.cache[userID]; ok {
		r.mu.Unlock()
		return p
	}
	r.mu.Unlock()

	for i, src := range r.sources {
		p, err := src.FetchProfile(ctx, userID)
		if err != nil {
			r.log.WarnContext(ctx, "profiles - resolve - source lookup failed", "source", src.Name(), "user_id", userID, "err", err)
			continue
		}
		if p == nil {
			continue
		}
		// The primary source only wins with a usable name; later
		// sources are taken as-is.
		if p.Label() == "" && i < len(r.sources)-1 {
			continue
		}
		r.mu.Lock()
		r.cache[userID] = p
		r.mu.Unlock()
		return p
	}
	return nil
}

// Label resolves userID to a display label, falling back to the
// hardcoded placeholder when nothing is known.
func (r *ProfileResolver) Label(ctx context.Context, userID string) string {
	if l := r.Resolve(ctx, userID).Label(); l != "" {
		return l
	}
	return FallbackLabel
}
