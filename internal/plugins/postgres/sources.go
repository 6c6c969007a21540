package postgres

import (
	"context"
	"database/sql"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

/*
	-- Profile sources: the user-curated profile and the auth-provider
	-- record are distinct stores, tried in that order by the resolver.
	CREATE TABLE profiles (
		user_id      TEXT PRIMARY KEY,
		user_name    TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		photo_url    TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE users (
		id           TEXT PRIMARY KEY,
		user_name    TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		photo_url    TEXT NOT NULL DEFAULT ''
	);
*/

type ProfilesSource struct {
	db *sql.DB
}

func NewProfilesSource(db *sql.DB) *ProfilesSource {
	return &ProfilesSource{db: db}
}

func (s *ProfilesSource) Name() string { return "profiles" }

func (s *ProfilesSource) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	exec := GetExecutor(ctx, s.db)
	p := domain.Profile{ID: userID}
	err := exec.QueryRowContext(ctx, `
		SELECT user_name, display_name, photo_url
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.UserName, &p.DisplayName, &p.PhotoURL)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

type UsersSource struct {
	db *sql.DB
}

func NewUsersSource(db *sql.DB) *UsersSource {
	return &UsersSource{db: db}
}

func (s *UsersSource) Name() string { return "users" }

func (s *UsersSource) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	exec := GetExecutor(ctx, s.db)
	p := domain.Profile{ID: userID}
	err := exec.QueryRowContext(ctx, `
		SELECT user_name, display_name, photo_url
		FROM users WHERE id = $1
	`, userID).Scan(&p.UserName, &p.DisplayName, &p.PhotoURL)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

/*
	-- Listings: only the title is consumed here, snapshotted into a new
	-- conversation. The listing lifecycle belongs to another service.
	CREATE TABLE listings (
		id    TEXT PRIMARY KEY,
		title TEXT NOT NULL
	);
*/

type ListingsSource struct {
	db *sql.DB
}

func NewListingsSource(db *sql.DB) *ListingsSource {
	return &ListingsSource{db: db}
}

func (s *ListingsSource) FetchListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	exec := GetExecutor(ctx, s.db)
	l := domain.Listing{ID: listingID}
	err := exec.QueryRowContext(ctx, `
		SELECT title FROM listings WHERE id = $1
	`, listingID).Scan(&l.Title)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
