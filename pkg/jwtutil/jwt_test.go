package jwtutil

import (
	"testing"

	"shutsugan-server/pkg/config"
)

func TestTokenRoundTrip(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 1})

	token, err := GenerateToken(42, "hanako", "teacher")
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "hanako" || claims.Role != "teacher" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken(1, "taro", "user")
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("token signed with another key must not validate")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: -1})
	token, err := GenerateToken(1, "taro", "user")
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("expired token must not validate")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 1})
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Fatalf("malformed token must not validate")
	}
}

func TestUninitializedPackage(t *testing.T) {
	Initialize(nil)
	defer Initialize(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 1})

	if _, err := GenerateToken(1, "taro", "user"); err == nil {
		t.Fatalf("generate must fail without configuration")
	}
	if _, err := ValidateToken("x"); err == nil {
		t.Fatalf("validate must fail without configuration")
	}
}
