package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	token, err := SignJWT(Claims{
		Sub:     "google:sub-1",
		Email:   "candidate@example.com",
		Name:    "Candidate One",
		Picture: "https://example.com/p.png",
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three token segments, got %q", token)
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "google:sub-1" || claims.Email != "candidate@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Iss != "interview-backend" {
		t.Fatalf("expected stamped issuer, got %q", claims.Iss)
	}
	if claims.Exp <= time.Now().UTC().Unix() {
		t.Fatalf("expected future expiry, got %d", claims.Exp)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{Sub: "google:sub-1"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	tampered := token + "x"
	if _, err := VerifyJWT(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{
		Sub: "google:sub-1",
		Exp: time.Now().UTC().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{Sub: "google:sub-1", Iss: "some-other-service"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestSignRequiresSecretInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENV", "production")

	if _, err := SignJWT(Claims{Sub: "google:sub-1"}); err == nil {
		t.Fatal("expected missing secret error in production")
	}
}
