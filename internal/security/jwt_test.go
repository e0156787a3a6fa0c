package security

import (
	"testing"
	"time"
)

func newJWTManagerForTest() *JWTManager {
	return NewJWTManager("docsecure", "docsecure-api", "abcdefghijklmnopqrstuvwxyz123456")
}

func TestSignAndParseRoundTrip(t *testing.T) {
	mgr := newJWTManagerForTest()
	raw, err := mgr.Sign(42, 15*time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := mgr.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected subject 42, got %d", id)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti claim")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	mgr := newJWTManagerForTest()
	raw, err := mgr.Sign(7, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := mgr.Parse(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	mgr := newJWTManagerForTest()
	other := NewJWTManager("docsecure", "docsecure-api", "totally-different-secret-material")
	raw, err := mgr.Sign(7, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := other.Parse(raw); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}

func TestSignWithJTIUsesProvidedID(t *testing.T) {
	mgr := newJWTManagerForTest()
	raw, err := mgr.SignWithJTI(1, time.Minute, "fixed-jti")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := mgr.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ID != "fixed-jti" {
		t.Fatalf("expected jti fixed-jti, got %q", claims.ID)
	}
}
