package auth

import (
	"testing"
	"time"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	pair, err := Issue("stu-1", RoleStudent, "classattend", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := Parse(pair.AccessToken, "secret", "classattend")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Subject != "stu-1" || claims.Role != RoleStudent {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	if _, err := Issue("u", "superuser", "classattend", "secret", time.Minute, time.Hour); err == nil {
		t.Fatalf("expected role validation error")
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("stu-1", RoleStudent, "classattend", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "other", "classattend"); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	pair, err := Issue("staff-1", RoleStaff, "someone-else", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "classattend"); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	pair, err := Issue("stu-1", RoleStudent, "classattend", "secret", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "classattend"); err == nil {
		t.Fatalf("expected expiry failure")
	}
}
