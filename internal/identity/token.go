package identity

import (
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the signed token payload: subject, role, and home club.
type Claims struct {
	Role   string `json:"role"`
	ClubID string `json:"clubId,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 bearer tokens.
type TokenIssuer struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
	nowFn      func() time.Time
}

// NewTokenIssuer wires a TokenIssuer.
func NewTokenIssuer(signingKey []byte, issuer string, tokenTTL time.Duration, now func() time.Time) (*TokenIssuer, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("%w: signing key is required", ErrInvalidServiceConfig)
	}
	if tokenTTL <= 0 {
		return nil, fmt.Errorf("%w: token ttl must be positive", ErrInvalidServiceConfig)
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &TokenIssuer{signingKey: signingKey, issuer: issuer, tokenTTL: tokenTTL, nowFn: now}, nil
}

// Issue signs a token for the given identity.
func (tokenIssuer *TokenIssuer) Issue(callerIdentity Identity) (string, error) {
	now := tokenIssuer.nowFn()
	claims := Claims{
		Role:   callerIdentity.Role.String(),
		ClubID: callerIdentity.ClubID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   callerIdentity.UserID,
			Issuer:    tokenIssuer.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenIssuer.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tokenIssuer.signingKey)
}

// Verify parses and validates a bearer token and returns the caller identity.
func (tokenIssuer *TokenIssuer) Verify(rawToken string) (Identity, error) {
	trimmed := strings.TrimSpace(rawToken)
	if trimmed == "" {
		return Identity{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(trimmed, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, token.Header["alg"])
		}
		return tokenIssuer.signingKey, nil
	}, jwt.WithTimeFunc(tokenIssuer.nowFn))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Identity{
		UserID: claims.Subject,
		Role:   role,
		ClubID: claims.ClubID,
	}, nil
}
