package token

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every way a presented credential can fail verification:
// bad signature, wrong algorithm, expired, or no subject.
var ErrInvalidToken = errors.New("token: invalid")

// JWTVerifier checks HS256 access tokens and extracts the subject (username).
// Token issuance belongs to the auth collaborator and is not handled here.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier from an explicit secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// NewJWTVerifierFromEnv reads JWT_ACCESS_SECRET_KEY.
func NewJWTVerifierFromEnv() (*JWTVerifier, error) {
	secret := os.Getenv("JWT_ACCESS_SECRET_KEY")
	if secret == "" {
		return nil, errors.New("token: JWT_ACCESS_SECRET_KEY environment variable is not set")
	}
	return NewJWTVerifier(secret), nil
}

// Subject parses and verifies the token string and returns its subject claim.
func (v *JWTVerifier) Subject(tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
