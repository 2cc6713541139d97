package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randBytes(t testing.TB, n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := randBytes(t, KeySize)
	pt := randBytes(t, 4096)
	ct, nonce, tag, err := Encrypt(pt, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if len(nonce) != NonceSize || len(tag) != TagSize {
		t.Fatalf("nonce/tag sizes: %d/%d", len(nonce), len(tag))
	}
	out, err := Decrypt(ct, key, nonce, tag)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(pt, out) {
		t.Fatal("plaintext mismatch")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key := randBytes(t, KeySize)
	ct, nonce, tag, err := Encrypt([]byte("secret-data"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	other := randBytes(t, KeySize)
	if _, err := Decrypt(ct, other, nonce, tag); err != ErrIntegrity {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestDecryptTamper(t *testing.T) {
	key := randBytes(t, KeySize)
	pt := []byte("hello world, this is not empty")
	ct, nonce, tag, err := Encrypt(pt, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	flip := func(b []byte, i int) []byte {
		mut := append([]byte(nil), b...)
		mut[i] ^= 0x01
		return mut
	}
	for i := range ct {
		if _, err := Decrypt(flip(ct, i), key, nonce, tag); err != ErrIntegrity {
			t.Fatalf("ciphertext bit %d accepted", i)
		}
	}
	for i := range nonce {
		if _, err := Decrypt(ct, key, flip(nonce, i), tag); err != ErrIntegrity {
			t.Fatalf("nonce bit %d accepted", i)
		}
	}
	for i := range tag {
		if _, err := Decrypt(ct, key, nonce, flip(tag, i)); err != ErrIntegrity {
			t.Fatalf("tag bit %d accepted", i)
		}
	}
}

func TestDecryptTruncatedTag(t *testing.T) {
	key := randBytes(t, KeySize)
	ct, nonce, tag, err := Encrypt([]byte("hello"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(ct, key, nonce, tag[:TagSize-1]); err != ErrIntegrity {
		t.Fatalf("expected ErrIntegrity on short tag, got %v", err)
	}
	if _, err := Decrypt(ct, key, nonce[:NonceSize-1], tag); err != ErrIntegrity {
		t.Fatalf("expected ErrIntegrity on short nonce, got %v", err)
	}
}

func TestEncryptUniqueNonce(t *testing.T) {
	key := randBytes(t, KeySize)
	_, n1, _, err := Encrypt([]byte("data"), key)
	if err != nil {
		t.Fatalf("encrypt1: %v", err)
	}
	_, n2, _, err := Encrypt([]byte("data"), key)
	if err != nil {
		t.Fatalf("encrypt2: %v", err)
	}
	if bytes.Equal(n1, n2) {
		t.Fatal("expected distinct nonces")
	}
}

func TestStringBytesInterop(t *testing.T) {
	key := randBytes(t, KeySize)
	env, err := EncryptString("héllo wörld", key)
	if err != nil {
		t.Fatalf("encrypt string: %v", err)
	}

	// Byte-oriented open of a string-oriented seal.
	ct, nonce, tag, err := env.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	pt, err := Decrypt(ct, key, nonce, tag)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(pt) != "héllo wörld" {
		t.Fatalf("got %q", pt)
	}

	// And the reverse: re-encode raw parts and open as a string.
	out, err := DecryptString(EncodeEnvelope(ct, nonce, tag), key)
	if err != nil {
		t.Fatalf("decrypt string: %v", err)
	}
	if out != "héllo wörld" {
		t.Fatalf("got %q", out)
	}
}

func TestDecryptStringBadEncoding(t *testing.T) {
	key := randBytes(t, KeySize)
	env, err := EncryptString("x", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	env.Tag = "not base64 !!!"
	if _, err := DecryptString(env, key); err != ErrIntegrity {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func FuzzDecryptRejectMutations(f *testing.F) {
	f.Add([]byte("hello"), uint8(0))
	f.Add([]byte(""), uint8(3))
	f.Fuzz(func(t *testing.T, pt []byte, pick uint8) {
		key := randBytes(t, KeySize)
		ct, nonce, tag, err := Encrypt(pt, key)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		if _, err := Decrypt(ct, key, nonce, tag); err != nil {
			t.Fatalf("baseline decrypt: %v", err)
		}
		mut := append([]byte(nil), tag...)
		mut[int(pick)%len(mut)] ^= 0xFF
		if _, err := Decrypt(ct, key, nonce, mut); err == nil {
			t.Fatal("mutated tag accepted")
		}
	})
}

func BenchmarkEncrypt4K(b *testing.B) {
	key := randBytes(b, KeySize)
	pt := randBytes(b, 4096)
	b.SetBytes(4096)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, _, err := Encrypt(pt, key); err != nil {
			b.Fatal(err)
		}
	}
}
