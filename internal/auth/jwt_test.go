package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken(UserClaims{UserID: "u-1", Email: "trader@example.com"})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "trader@example.com" {
		t.Errorf("Claims came back wrong: %+v", claims)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken(UserClaims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := m.ValidateAccessToken(token); err != ErrTokenExpired {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	m := NewJWTManager("secret-a", 15*time.Minute, 24*time.Hour)
	other := NewJWTManager("secret-b", 15*time.Minute, 24*time.Hour)

	token, _ := m.GenerateAccessToken(UserClaims{UserID: "u-1"})
	if _, err := other.ValidateAccessToken(token); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordHashAndVerify(t *testing.T) {
	p := NewPasswordManager(4, 8) // low cost keeps the test fast

	hash, err := p.HashPassword("Str0ngPass!")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !p.VerifyPassword("Str0ngPass!", hash) {
		t.Error("Correct password should verify")
	}
	if p.VerifyPassword("wrong", hash) {
		t.Error("Wrong password must not verify")
	}
}

func TestPasswordStrength(t *testing.T) {
	p := NewPasswordManager(4, 10)

	if err := p.ValidatePasswordStrength("short"); err == nil {
		t.Error("Short password should be rejected")
	}
	if err := p.ValidatePasswordStrength("long enough password"); err != nil {
		t.Errorf("Valid password rejected: %v", err)
	}
}
