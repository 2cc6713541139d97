package keyring

import (
	"bytes"
	"errors"
	"testing"

	cr "github.com/a14a-org/claudeskill-manager/internal/crypto"
)

// Production argon2id costs would make this suite take minutes.
var testKDF = cr.KDFParams{M: 64, T: 1, P: 1}

func testSetup(t *testing.T, passphrase string) *Material {
	t.Helper()
	m, err := setup([]byte(passphrase), testKDF)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return m
}

func TestSetupUnlockInverse(t *testing.T) {
	m := testSetup(t, "correct horse battery staple")
	got, err := Unlock([]byte("correct horse battery staple"), m.Salt, m.Wrapped, m.KDF)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if !bytes.Equal(got, m.MasterKey) {
		t.Fatal("unlocked master key differs from original")
	}
}

func TestUnlockWrongPassphrase(t *testing.T) {
	m := testSetup(t, "right passphrase")
	if _, err := Unlock([]byte("wrong passphrase"), m.Salt, m.Wrapped, m.KDF); !errors.Is(err, ErrInvalidPassphrase) {
		t.Fatalf("expected ErrInvalidPassphrase, got %v", err)
	}
}

func TestUnlockCorruptedBlob(t *testing.T) {
	m := testSetup(t, "passphrase")
	mut := append([]byte(nil), m.Wrapped...)
	mut[len(mut)-1] ^= 0x01
	// Corruption must be indistinguishable from a wrong passphrase.
	if _, err := Unlock([]byte("passphrase"), m.Salt, mut, m.KDF); !errors.Is(err, ErrInvalidPassphrase) {
		t.Fatalf("expected ErrInvalidPassphrase, got %v", err)
	}
}

func TestUnlockWithRecovery(t *testing.T) {
	m := testSetup(t, "passphrase")
	got, err := UnlockWithRecovery(m.Recovery.Format(), m.Salt, m.RecoveryWrapped, m.KDF)
	if err != nil {
		t.Fatalf("recovery unlock: %v", err)
	}
	if !bytes.Equal(got, m.MasterKey) {
		t.Fatal("recovery-unlocked master key differs")
	}
}

func TestUnlockWithRecoveryWrongWords(t *testing.T) {
	m := testSetup(t, "passphrase")
	other, err := NewRecoveryKey()
	if err != nil {
		t.Fatalf("NewRecoveryKey: %v", err)
	}
	if other.Bytes == m.Recovery.Bytes {
		t.Skip("generated identical recovery key")
	}
	_, err = UnlockWithRecovery(other.Format(), m.Salt, m.RecoveryWrapped, m.KDF)
	if !errors.Is(err, ErrInvalidRecoveryKey) {
		t.Fatalf("expected ErrInvalidRecoveryKey, got %v", err)
	}
}

func TestRewrapKeepsMasterKeyAndRecovery(t *testing.T) {
	m := testSetup(t, "old passphrase")

	wrapped, err := Rewrap(m.MasterKey, []byte("new passphrase"), m.Salt, m.KDF)
	if err != nil {
		t.Fatalf("rewrap: %v", err)
	}

	got, err := Unlock([]byte("new passphrase"), m.Salt, wrapped, m.KDF)
	if err != nil {
		t.Fatalf("unlock after rewrap: %v", err)
	}
	if !bytes.Equal(got, m.MasterKey) {
		t.Fatal("master key changed across rewrap")
	}

	// The old passphrase no longer opens the new blob.
	if _, err := Unlock([]byte("old passphrase"), m.Salt, wrapped, m.KDF); err == nil {
		t.Fatal("old passphrase still unlocks")
	}

	// Salt reuse keeps the recovery path valid without re-wrapping it.
	if _, err := UnlockWithRecovery(m.Recovery.Format(), m.Salt, m.RecoveryWrapped, m.KDF); err != nil {
		t.Fatalf("recovery unlock after rewrap: %v", err)
	}
}

func TestUnlockRejectsBadKDFParams(t *testing.T) {
	m := testSetup(t, "passphrase")

	// The params come from the server-stored keyring; a corrupt record must
	// surface as an error, never as an argon2 panic.
	for _, p := range []cr.KDFParams{
		{M: 64, T: 0, P: 1},
		{M: 64, T: 1, P: 0},
		{M: 0, T: 1, P: 1},
	} {
		if _, err := Unlock([]byte("passphrase"), m.Salt, m.Wrapped, p); !errors.Is(err, cr.ErrKDFParams) {
			t.Fatalf("Unlock with %+v: expected ErrKDFParams, got %v", p, err)
		}
	}

	if _, err := UnlockWithRecovery(m.Recovery.Format(), m.Salt, m.RecoveryWrapped, cr.KDFParams{}); !errors.Is(err, cr.ErrKDFParams) {
		t.Fatal("recovery unlock accepted zero kdf params")
	}
	if _, err := Rewrap(m.MasterKey, []byte("new passphrase"), m.Salt, cr.KDFParams{T: 1}); !errors.Is(err, cr.ErrKDFParams) {
		t.Fatal("rewrap accepted zero kdf params")
	}
}

func TestWrappedBlobLayout(t *testing.T) {
	m := testSetup(t, "passphrase")
	// nonce(12) || tag(16) || ciphertext; ciphertext length equals the
	// master key length for this AEAD.
	if len(m.Wrapped) != cr.NonceSize+cr.TagSize+MasterKeySize {
		t.Fatalf("wrapped blob length %d", len(m.Wrapped))
	}
	env := cr.EncodeEnvelope(
		m.Wrapped[cr.NonceSize+cr.TagSize:],
		m.Wrapped[:cr.NonceSize],
		m.Wrapped[cr.NonceSize:cr.NonceSize+cr.TagSize],
	)
	dk := cr.Derive([]byte("passphrase"), m.Salt, m.KDF)
	ct, nonce, tag, err := env.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	pt, err := cr.Decrypt(ct, dk.Key[:], nonce, tag)
	if err != nil {
		t.Fatalf("decrypt by fixed offsets: %v", err)
	}
	if !bytes.Equal(pt, m.MasterKey) {
		t.Fatal("fixed-offset slicing did not recover the master key")
	}
}
