package handler

import (
	"encoding/hex"
	"testing"

	"shutsugan-server/internal/authz"
	"shutsugan-server/pkg/config"
	"shutsugan-server/pkg/jwtutil"
)

func TestPreviewPassword(t *testing.T) {
	first, err := previewPassword()
	if err != nil {
		t.Fatalf("password error: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(first))
	}
	if _, err := hex.DecodeString(first); err != nil {
		t.Fatalf("password is not hex: %v", err)
	}

	second, err := previewPassword()
	if err != nil {
		t.Fatalf("password error: %v", err)
	}
	if first == second {
		t.Fatalf("passwords must be random")
	}
}

func TestPreviewTokenCarriesStudentRole(t *testing.T) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 1})

	token, err := jwtutil.GenerateToken(9, previewUsername, string(authz.RoleUser))
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	claims, err := jwtutil.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if claims.Username != "staff_preview" || authz.NormalizeRole(claims.Role) != authz.RoleUser {
		t.Fatalf("preview token must resolve to the shared student account, got %+v", claims)
	}
}
