package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestSubjectRoundTrip(t *testing.T) {
	v := NewJWTVerifier("top-secret")
	tok := signHS256(t, "top-secret", jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	sub, err := v.Subject(tok)
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("sub = %q, want %q", sub, "alice")
	}
}

func TestSubjectRejectsWrongSecret(t *testing.T) {
	v := NewJWTVerifier("right")
	tok := signHS256(t, "wrong", jwt.MapClaims{"sub": "alice"})

	if _, err := v.Subject(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}

func TestSubjectRejectsExpiredToken(t *testing.T) {
	v := NewJWTVerifier("top-secret")
	tok := signHS256(t, "top-secret", jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	if _, err := v.Subject(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}

func TestSubjectRejectsUnsignedToken(t *testing.T) {
	v := NewJWTVerifier("top-secret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := v.Subject(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}

func TestSubjectRejectsMissingSubject(t *testing.T) {
	v := NewJWTVerifier("top-secret")
	tok := signHS256(t, "top-secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Subject(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}

func TestSubjectRejectsGarbage(t *testing.T) {
	v := NewJWTVerifier("top-secret")
	if _, err := v.Subject("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}
