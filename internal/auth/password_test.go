package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("Senha123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "Senha123" {
		t.Fatal("hash must not equal the raw password")
	}
	if !CheckPassword(hash, "Senha123") {
		t.Error("CheckPassword should accept the correct password")
	}
	if CheckPassword(hash, "senha123") {
		t.Error("CheckPassword should reject a different password")
	}
}

func TestHashPassword_InvalidCostFallsBackToDefault(t *testing.T) {
	hash, err := HashPassword("Senha123", 99)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost failed: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", 73), bcrypt.MinCost); err == nil {
		t.Error("expected error for password longer than 72 bytes")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	if CheckPassword("not-a-bcrypt-hash", "Senha123") {
		t.Error("CheckPassword should reject a malformed hash")
	}
}
