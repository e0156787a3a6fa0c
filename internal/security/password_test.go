package security

import "testing"

func TestPasswordHashVerifyRoundTrip(t *testing.T) {
	h := NewPasswordHasher(4)
	hash, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "Passw0rd!" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !h.Verify("Passw0rd!", hash) {
		t.Fatal("expected correct password to verify")
	}
	if h.Verify("wrong", hash) {
		t.Fatal("expected wrong password to fail")
	}
}

func TestVerifyMalformedHashIsNonMatch(t *testing.T) {
	h := NewPasswordHasher(4)
	if h.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatal("malformed hash must not verify")
	}
}

func TestNewPasswordHasherClampsCost(t *testing.T) {
	h := NewPasswordHasher(99)
	if _, err := h.Hash("x"); err != nil {
		t.Fatalf("hash with clamped cost: %v", err)
	}
}

func TestShareTokenUniqueAndURLSafe(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		tok, err := NewShareToken()
		if err != nil {
			t.Fatalf("new share token: %v", err)
		}
		if len(tok) < 30 {
			t.Fatalf("token too short: %q", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated: %q", tok)
		}
		seen[tok] = true
	}
}
