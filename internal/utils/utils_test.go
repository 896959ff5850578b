package utils

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, "3f1c8a2e-0000-4000-8000-000000000001", "admin", 15)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	claims, err := ParseAccessToken(testSecret, tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if claims.UserID != "3f1c8a2e-0000-4000-8000-000000000001" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseAccessToken_Rejects(t *testing.T) {
	expired, err := NewAccessToken(testSecret, "u1", "user", -1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAccessToken(testSecret, expired.Token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token error = %v, want ErrTokenExpired", err)
	}

	good, _ := NewAccessToken(testSecret, "u1", "user", 15)
	if _, err := ParseAccessToken("another-secret-another-secret!!", good.Token); err == nil {
		t.Error("token signed with another secret accepted")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "exp": 9999999999})
	raw, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ParseAccessToken(testSecret, raw); err == nil {
		t.Error("unsigned token accepted")
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(30)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewRefreshToken(30)
	if len(a.Raw) != 96 || a.Raw == b.Raw {
		t.Errorf("refresh tokens not random 96-char hex: %q %q", a.Raw, b.Raw)
	}
	if h := HashRefreshRaw(a.Raw); len(h) != 64 || h != HashRefreshRaw(a.Raw) {
		t.Errorf("HashRefreshRaw not a stable sha256 hex: %q", h)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secreto", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, "secreto") {
		t.Error("VerifyPassword rejected the right password")
	}
	if VerifyPassword(hash, "secret0") {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestPasswordLongEnough(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"12345", false},
		{"123456", true},
		{"ñandú1", true},
	}
	for _, tt := range tests {
		if got := PasswordLongEnough(tt.in); got != tt.want {
			t.Errorf("PasswordLongEnough(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
