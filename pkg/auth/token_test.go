package auth

import (
	"strings"
	"testing"

	"github.com/meridianops/stockroute-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "stockroute",
		ExpirationMinutes: 5,
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := IssueAccessToken(cfg, "ops@example")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "ops@example" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := IssueAccessToken(testJWTConfig(), "ops@example")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := testJWTConfig()
	other.Secret = "different"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	cfg.Issuer = "someone-else"
	token, err := IssueAccessToken(cfg, "ops@example")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := ParseAccessToken(testJWTConfig(), token); err == nil {
		t.Fatal("expected issuer rejection")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseAccessToken(testJWTConfig(), "not.a.token")
	if err == nil || !strings.Contains(err.Error(), "parse token") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
