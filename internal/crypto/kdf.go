package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the per-account KDF salt length. The salt is not secret; it is
// stored server-side and fetched before derivation.
const SaltSize = 16

// KDFParams are the argon2id cost parameters. They travel with the wrapped
// master key so older accounts keep unlocking if the defaults ever move.
type KDFParams struct {
	M uint32 // memory in KiB
	T uint32 // iterations
	P uint8  // parallelism
}

// DefaultKDF is the fixed cost profile for new accounts: 64 MiB, 3 passes,
// 4 lanes.
func DefaultKDF() KDFParams {
	return KDFParams{M: 64 * 1024, T: 3, P: 4}
}

// maxKDFMemory caps M at 4 GiB worth of KiB; anything above is a corrupt or
// hostile parameter set, not a cost profile.
const maxKDFMemory = 4 * 1024 * 1024

var ErrKDFParams = errors.New("crypto: invalid kdf parameters")

// Validate rejects parameter sets argon2 cannot run. argon2.IDKey panics on
// zero iterations or zero lanes instead of returning an error, so parameters
// that cross a trust boundary (the server-stored keyring) must be checked
// before any derivation.
func (p KDFParams) Validate() error {
	if p.T == 0 || p.P == 0 {
		return ErrKDFParams
	}
	// argon2 needs at least 8 KiB per lane.
	if p.M < 8*uint32(p.P) || p.M > maxKDFMemory {
		return ErrKDFParams
	}
	return nil
}

// DerivedKey is a passphrase- or recovery-derived symmetric key. Held only in
// process memory for the duration of an operation, never persisted.
type DerivedKey struct {
	Key  [32]byte
	Salt []byte
}

// Derive runs argon2id over the secret material and salt. Pure: identical
// inputs always produce identical key bytes. The function is agnostic to
// whether the secret is a UTF-8 passphrase or recovery-key bytes.
func Derive(secret, salt []byte, p KDFParams) DerivedKey {
	dk := DerivedKey{Salt: salt}
	key := argon2.IDKey(secret, salt, p.T, p.M, p.P, 32)
	copy(dk.Key[:], key)
	Zero(key)
	return dk
}

// NewSalt returns a fresh 128-bit random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}
