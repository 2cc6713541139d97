// Package keyring implements the account key hierarchy: a passphrase- or
// recovery-derived key wraps the master key, and the master key encrypts all
// skill content. Changing the passphrase re-wraps the master key without
// touching any content.
package keyring

import (
	"crypto/rand"
	"errors"

	cr "github.com/a14a-org/claudeskill-manager/internal/crypto"
)

const MasterKeySize = 32

// Wrapped master key blob layout, a storage compatibility contract:
// bytes [0,12) nonce, [12,28) tag, [28,..) ciphertext.
const (
	blobNonceEnd = cr.NonceSize
	blobTagEnd   = cr.NonceSize + cr.TagSize
	blobMinSize  = blobTagEnd + 1
)

var (
	// ErrInvalidPassphrase covers both a wrong passphrase and a corrupted
	// blob; the two are deliberately indistinguishable so a failed unlock
	// leaks nothing about which it was.
	ErrInvalidPassphrase  = errors.New("keyring: unlock failed")
	ErrInvalidRecoveryKey = errors.New("keyring: recovery unlock failed")
)

// Material is everything Setup produces: the unlocked master key for the
// current process, and the salt/wrapped-blobs/recovery-key the caller must
// persist or display. The recovery key itself is shown once and never stored.
type Material struct {
	MasterKey       []byte
	Salt            []byte
	Wrapped         []byte // master key under the passphrase-derived key
	RecoveryWrapped []byte // master key under the recovery-derived key
	KDF             cr.KDFParams
	Recovery        RecoveryKey
}

// Setup provisions a new account: one salt, one random master key, and the
// master key wrapped twice, once under each derivation path. Both paths run
// the identical KDF against the same account salt; only the secret material
// differs.
func Setup(passphrase []byte) (*Material, error) {
	return setup(passphrase, cr.DefaultKDF())
}

func setup(passphrase []byte, p cr.KDFParams) (*Material, error) {
	salt, err := cr.NewSalt()
	if err != nil {
		return nil, err
	}
	master := make([]byte, MasterKeySize)
	if _, err := rand.Read(master); err != nil {
		return nil, err
	}

	wrapped, err := wrapUnder(master, passphrase, salt, p)
	if err != nil {
		return nil, err
	}

	rk, err := NewRecoveryKey()
	if err != nil {
		return nil, err
	}
	recoveryWrapped, err := wrapUnder(master, rk.Bytes[:], salt, p)
	if err != nil {
		return nil, err
	}

	return &Material{
		MasterKey:       master,
		Salt:            salt,
		Wrapped:         wrapped,
		RecoveryWrapped: recoveryWrapped,
		KDF:             p,
		Recovery:        rk,
	}, nil
}

// Wrap encrypts a master key under a derived key and assembles the fixed
// nonce|tag|ciphertext blob.
func Wrap(masterKey []byte, dk cr.DerivedKey) ([]byte, error) {
	ct, nonce, tag, err := cr.Encrypt(masterKey, dk.Key[:])
	if err != nil {
		return nil, err
	}
	blob := make([]byte, 0, len(nonce)+len(tag)+len(ct))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)
	return blob, nil
}

// Unlock re-derives the key from the passphrase and unwraps the master key.
// KDF parameters come from the server-stored keyring, so a malformed set is
// reported as crypto.ErrKDFParams rather than fed to the KDF.
func Unlock(passphrase, salt, wrapped []byte, p cr.KDFParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	master, err := unwrap(passphrase, salt, wrapped, p)
	if err != nil {
		return nil, ErrInvalidPassphrase
	}
	return master, nil
}

// UnlockWithRecovery is Unlock against the recovery-wrapped blob, with the
// recovery key's raw bytes as the secret material. Parse errors (wrong word
// count, unknown word) surface as ErrMalformedRecovery before any KDF work.
func UnlockWithRecovery(words string, salt, recoveryWrapped []byte, p cr.KDFParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rk, err := ParseRecoveryKey(words)
	if err != nil {
		return nil, err
	}
	master, err := unwrap(rk.Bytes[:], salt, recoveryWrapped, p)
	if err != nil {
		return nil, ErrInvalidRecoveryKey
	}
	return master, nil
}

// Rewrap wraps an already-unlocked master key under a key derived from a new
// passphrase. The account salt is reused so the recovery-wrapped blob stays
// valid; skill content stays untouched either way, which is the entire point
// of the two-tier hierarchy.
func Rewrap(masterKey, newPassphrase, salt []byte, p cr.KDFParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return wrapUnder(masterKey, newPassphrase, salt, p)
}

func wrapUnder(masterKey, secret, salt []byte, p cr.KDFParams) ([]byte, error) {
	dk := cr.Derive(secret, salt, p)
	defer cr.Zero32(&dk.Key)
	return Wrap(masterKey, dk)
}

func unwrap(secret, salt, wrapped []byte, p cr.KDFParams) ([]byte, error) {
	if len(wrapped) < blobMinSize {
		return nil, errors.New("keyring: wrapped key too short")
	}
	nonce := wrapped[:blobNonceEnd]
	tag := wrapped[blobNonceEnd:blobTagEnd]
	ct := wrapped[blobTagEnd:]

	dk := cr.Derive(secret, salt, p)
	defer cr.Zero32(&dk.Key)
	return cr.Decrypt(ct, dk.Key[:], nonce, tag)
}
