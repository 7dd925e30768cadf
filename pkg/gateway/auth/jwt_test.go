package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/google/uuid"
)

func testManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("0123456789abcdef0123456789abcdef", "edumint-platform", "edumint-api", time.Hour)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return m
}

func TestIssueAndValidateToken(t *testing.T) {
	m := testManager(t)
	user := models.User{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Email:          "pat@school.edu",
		Name:           "Pat",
		Role:           "educator",
	}

	token, err := m.IssueToken(user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three segments, got %q", token)
	}

	claims, err := m.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != user.ID || claims.OrganizationID != user.OrganizationID {
		t.Fatal("claims do not round-trip identity")
	}
	if claims.Role != "educator" || claims.Email != user.Email || claims.Name != "Pat" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	m := testManager(t)
	token, err := m.IssueToken(models.User{ID: uuid.New(), Role: "educator"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := m.ValidateToken(context.Background(), tampered); err == nil {
		t.Fatal("expected tampered payload to fail validation")
	}

	if _, err := m.ValidateToken(context.Background(), "not-a-token"); err == nil {
		t.Fatal("expected malformed token to fail validation")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := testManager(t)
	m.nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.IssueToken(models.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	m.nowFunc = time.Now
	if _, err := m.ValidateToken(context.Background(), token); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m := testManager(t)
	token, err := m.IssueToken(models.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	other, err := NewJWTManager("fedcba9876543210fedcba9876543210", "edumint-platform", "edumint-api", time.Hour)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if _, err := other.ValidateToken(context.Background(), token); err == nil {
		t.Fatal("expected token signed with another key to fail")
	}
}

func TestNewJWTManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTManager("short", "iss", "aud", time.Hour); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}
