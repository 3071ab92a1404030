// Package auth issues and verifies the HS256 bearer tokens the quiz service
// accepts. The subject is the username; name and email ride along so the
// service can create a profile on first sight.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quizzly/internal/quiz"
)

const DefaultTTL = 30 * 24 * time.Hour

var (
	ErrMissingSecret = errors.New("jwt secret is required")
	ErrNoCredential  = errors.New("no credential presented")
)

type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func NewAuthenticator(secret string) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &Authenticator{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for profile. A non-positive ttl uses DefaultTTL.
func (a *Authenticator) Issue(profile quiz.UserProfile, ttl time.Duration) (string, error) {
	username := strings.TrimSpace(profile.Username)
	if username == "" {
		return "", quiz.ErrInvalidUsername
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := a.now()
	claims := Claims{
		Name:  profile.Name,
		Email: profile.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify returns the identity carried by a valid token.
func (a *Authenticator) Verify(tokenString string) (quiz.UserProfile, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return quiz.UserProfile{}, fmt.Errorf("%w: %v", quiz.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return quiz.UserProfile{}, fmt.Errorf("%w: invalid token", quiz.ErrUnauthorized)
	}

	return quiz.UserProfile{
		Name:     claims.Name,
		Email:    claims.Email,
		Username: claims.Subject,
	}, nil
}

// FromRequest reads the bearer credential. ErrNoCredential means none was
// sent; any other error means one was sent and rejected.
func (a *Authenticator) FromRequest(r *http.Request) (quiz.UserProfile, error) {
	token := BearerToken(r)
	if token == "" {
		return quiz.UserProfile{}, ErrNoCredential
	}
	return a.Verify(token)
}

func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}
