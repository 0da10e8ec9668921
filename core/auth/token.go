// Package auth issues and verifies bearer credentials and carries the
// authenticated identity through a request's context.
package auth

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/hsuniversity/classroom/core/user"
)

const bearerPrefix = "Bearer "

var (
	// ErrNoCredential means the request carried no credential at all.
	ErrNoCredential = errors.New("No token provided")
	// ErrInvalidCredential covers bad signatures, malformed tokens and unexpected algorithms.
	ErrInvalidCredential = errors.New("Invalid token")
	// ErrExpiredCredential means the token was genuine but is past its expiry.
	ErrExpiredCredential = errors.New("Token expired")

	signingMethod = jwt.SigningMethodHS256
)

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the user's uid.
type Claims struct {
	jwt.StandardClaims
	Email string    `json:"email,omitempty"`
	Role  user.Role `json:"role,omitempty"`
}

// TokenManager signs and verifies credentials with a single HMAC trust anchor.
// It holds no mutable state and is safe for concurrent use.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time // mockable
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// ClaimsFor builds the claims of a fresh credential for usr.
func (tm *TokenManager) ClaimsFor(usr user.User) *Claims {
	now := tm.now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    tm.issuer,
			Subject:   usr.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tm.ttl).Unix(),
		},
		Email: usr.Email,
		Role:  usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (tm *TokenManager) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)
	ss, err := token.SignedString(tm.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Issue signs a fresh credential for usr.
func (tm *TokenManager) Issue(usr user.User) (string, error) {
	return tm.GenerateToken(tm.ClaimsFor(usr))
}

// Verify validates the raw Authorization header value and returns its claims.
// A leading "Bearer " is stripped; anything else is taken as the token itself.
func (tm *TokenManager) Verify(rawHeader string) (Claims, error) {
	if rawHeader == "" {
		return Claims{}, ErrNoCredential
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(rawHeader, bearerPrefix))
	if tokenStr == "" {
		return Claims{}, ErrInvalidCredential
	}

	claims := new(Claims)
	parser := jwt.Parser{ValidMethods: []string{signingMethod.Alg()}}
	_, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok && vErr.Errors == jwt.ValidationErrorExpired {
			return Claims{}, ErrExpiredCredential
		}
		return Claims{}, ErrInvalidCredential
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidCredential
	}
	return *claims, nil
}
