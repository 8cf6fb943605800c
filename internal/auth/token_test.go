package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("future expiry is valid", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
		if TokenExpired(token, now) {
			t.Error("Token with a future exp reported as expired")
		}
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()})
		if !TokenExpired(token, now) {
			t.Error("Token with a past exp reported as valid")
		}
	})

	t.Run("missing exp claim is expired", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"sub": "1"})
		if !TokenExpired(token, now) {
			t.Error("Token without exp should be treated as expired")
		}
	})

	t.Run("garbage is expired", func(t *testing.T) {
		if !TokenExpired("not-a-jwt", now) {
			t.Error("Unparseable token should be treated as expired")
		}
		if !TokenExpired("", now) {
			t.Error("Empty token should be treated as expired")
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "password1" {
		t.Fatal("Password stored in plaintext")
	}
	if !CheckPassword(hash, "password1") {
		t.Error("Hash does not verify the original password")
	}
	if CheckPassword(hash, "password2") {
		t.Error("Hash verified a wrong password")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err != ErrWeakPassword {
		t.Errorf("Expected ErrWeakPassword, got %v", err)
	}
	if err := ValidatePassword("longenough"); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}
