package auth

import "testing"

var testArgon = ArgonParams{Memory: 64, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword(testArgon, "Password123!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	ok, err := VerifyPassword("Password123!", hash)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if !ok {
		t.Fatalf("expected VerifyPassword to succeed")
	}
	ok, err = VerifyPassword("Password123?", hash)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if ok {
		t.Fatalf("wrong password must not verify")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	ok, err := VerifyPassword("Password123!", "invalid-hash-format")
	if err == nil {
		t.Fatalf("expected error for malformed hash")
	}
	if ok {
		t.Fatalf("expected verification failure for malformed hash")
	}
}

func TestNormalizeAccountName(t *testing.T) {
	got, err := NormalizeAccountName("  Alice.Dev  ")
	if err != nil {
		t.Fatalf("NormalizeAccountName error: %v", err)
	}
	if got != "alice.dev" {
		t.Fatalf("got %q", got)
	}
	for _, bad := range []string{"", "ab", "has space", "UPPER!", "a/b"} {
		if _, err := NormalizeAccountName(bad); err == nil {
			t.Fatalf("expected rejection of %q", bad)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	priv, _, err := GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519 error: %v", err)
	}
	signer := NewJWTSigner(priv, "skillsync", 3600e9)

	token, exp, err := signer.IssueToken("alice")
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if exp.IsZero() {
		t.Fatalf("expected a real expiry")
	}

	claims, err := signer.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate error: %v", err)
	}
	if claims.Account != "alice" {
		t.Fatalf("account = %q", claims.Account)
	}
	if claims.TokenID == "" {
		t.Fatalf("expected a jti")
	}

	if _, err := signer.ParseAndValidate(token + "x"); err == nil {
		t.Fatalf("tampered token must not validate")
	}

	otherPriv, _, _ := GenerateEd25519()
	other := NewJWTSigner(otherPriv, "skillsync", 3600e9)
	if _, err := other.ParseAndValidate(token); err == nil {
		t.Fatalf("token from another key must not validate")
	}
}
