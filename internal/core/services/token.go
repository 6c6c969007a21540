package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// TokenService is the consuming edge of the identity collaborator: it
// mints and validates the bearer tokens that carry a user's identity
// into a shell session. The auth flow that issues credentials in the
// first place lives outside this repo.
type TokenService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secretKey: []byte(secret),
		issuer:    "handy-rentals",
		ttl:       ttl,
	}
}

// GenerateToken signs a token for the identity. Display data rides
// along in claims so the shell can build an Identity without another
// profile read.
func (s *TokenService) GenerateToken(who domain.Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub": who.ID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.ttl).Unix(),
		"iss": s.issuer,
	}
	if who.DisplayName != "" {
		claims["name"] = who.DisplayName
	}
	if who.AvatarURL != "" {
		claims["pic"] = who.AvatarURL
	}
	if who.Email != "" {
		claims["email"] = who.Email
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ParseIdentity validates tokenStr and rebuilds the Identity it carries.
func (s *TokenService) ParseIdentity(tokenStr string) (domain.Identity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, fmt.Errorf("invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return domain.Identity{}, fmt.Errorf("subject not found in token")
	}
	who := domain.Identity{ID: sub}
	if name, ok := claims["name"].(string); ok {
		who.DisplayName = name
	}
	if pic, ok := claims["pic"].(string); ok {
		who.AvatarURL = pic
	}
	if email, ok := claims["email"].(string); ok {
		who.Email = email
	}
	return who, nil
}
