package audit

import "testing"

func TestChainPerAccount(t *testing.T) {
	l := New()
	l.Append("alice", "signup")
	l.Append("bob", "signup")
	l.Append("alice", "push skill:deploy@12345678")

	if got := len(l.Entries("alice")); got != 2 {
		t.Fatalf("alice entries = %d", got)
	}
	if got := len(l.Entries("bob")); got != 1 {
		t.Fatalf("bob entries = %d", got)
	}
	if err := l.Verify("alice"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := l.Verify("nobody"); err != nil {
		t.Fatalf("empty chain must verify: %v", err)
	}
}

func TestVerifyDetectsTamper(t *testing.T) {
	l := New()
	l.Append("alice", "signup")
	l.Append("alice", "login")

	l.chains["alice"].entries[0].What = "login"
	if err := l.Verify("alice"); err == nil {
		t.Fatalf("tampered chain must not verify")
	}
}
