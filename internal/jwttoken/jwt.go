// Package jwttoken handles access token creation and validation.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"apibase/pkg/apierror"
)

// Claims are the claims carried by our access tokens. Subject holds the
// user ID.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 access tokens.
type Service struct {
	signingKey []byte
	issuer     string
	expiresIn  time.Duration
}

// New constructs a token service. expiresIn applies to every minted token.
func New(signingKey, issuer string, expiresIn time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		expiresIn:  expiresIn,
	}
}

// Generate mints a signed access token for the given user.
func (s *Service) Generate(userID, email string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Verify checks signature and expiry and returns the decoded claims. Exactly
// one verification per call; expired tokens are distinguishable from invalid
// ones by error code.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierror.Wrap(apierror.CodeTokenExpired, "Authentication token has expired", err)
		}
		return nil, apierror.Wrap(apierror.CodeInvalidToken, "Invalid authentication token", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apierror.New(apierror.CodeInvalidToken, "Invalid authentication token")
	}
	return claims, nil
}
