package keyring

import (
	"errors"
	"strings"
	"testing"
)

func TestRecoveryKeyRoundTrip(t *testing.T) {
	rk, err := NewRecoveryKey()
	if err != nil {
		t.Fatalf("NewRecoveryKey: %v", err)
	}
	parsed, err := ParseRecoveryKey(rk.Format())
	if err != nil {
		t.Fatalf("parse formatted key: %v", err)
	}
	if parsed != rk {
		t.Fatalf("round trip mismatch: %v != %v", parsed, rk)
	}
}

func TestParseRecoveryKeySeparators(t *testing.T) {
	rk, err := NewRecoveryKey()
	if err != nil {
		t.Fatalf("NewRecoveryKey: %v", err)
	}
	display := rk.Format()

	for _, in := range []string{
		display,
		strings.ToLower(display),
		strings.ReplaceAll(display, "-", " "),
		"  " + strings.ReplaceAll(strings.ToLower(display), "-", "\t") + "\n",
	} {
		parsed, err := ParseRecoveryKey(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if parsed.Bytes != rk.Bytes {
			t.Fatalf("parse %q: bytes mismatch", in)
		}
	}
}

func TestParseRecoveryKeyRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"aardvark",
		"aardvark-absurd-accrue-acme-adrift-adult-afflict",                 // 7 words
		"aardvark-absurd-accrue-acme-adrift-adult-afflict-ahead-aimless",   // 9 words
		"aardvark-absurd-accrue-acme-adrift-adult-afflict-notaword",        // unknown word
		"aardvark absurd accrue acme adrift adult afflict qwertyuiopasdfg", // unknown word
	} {
		if _, err := ParseRecoveryKey(in); !errors.Is(err, ErrMalformedRecovery) {
			t.Fatalf("parse %q: expected ErrMalformedRecovery, got %v", in, err)
		}
	}
}

func TestWordlistIntegrity(t *testing.T) {
	seen := make(map[string]bool, len(wordlist))
	for i, w := range wordlist {
		if w == "" {
			t.Fatalf("empty word at index %d", i)
		}
		if w != strings.ToLower(w) {
			t.Fatalf("word %q not lower-case", w)
		}
		if seen[w] {
			t.Fatalf("duplicate word %q", w)
		}
		seen[w] = true
	}
	if len(seen) != 256 {
		t.Fatalf("wordlist has %d unique entries", len(seen))
	}
}
