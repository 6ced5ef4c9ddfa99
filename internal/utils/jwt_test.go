package utils

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	const address = "0xabcdef0123456789abcdef0123456789abcdef01"

	token, err := GenerateToken(secret, address, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	got, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if got != address {
		t.Fatalf("address = %s, want %s", got, address)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", "0xabc", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ParseToken("secret-b", token); err == nil {
		t.Fatal("token signed with a different secret must not parse")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", "0xabc", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expired token must not parse")
	}
}
