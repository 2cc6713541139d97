// Package storage defines the server-side persistence contracts for one
// account: the content-addressed skill version chain with its per-skill
// current pointer, and the keyring record holding the salt and wrapped
// master keys. The server only ever sees ciphertext.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/a14a-org/claudeskill-manager/internal/crypto"
)

var ErrNotFound = errors.New("storage: not found")

// Version is one link of a skill's chain. Hash is the full content hash of
// the plaintext; Parent is the hash that was current when this version was
// pushed, empty for a first version. Parent linkage is recorded, not
// enforced: two devices pushing from the same base produce two versions with
// the same parent, and the chain stays linear only under single-writer use.
type Version struct {
	Key       string          `bson:"key" json:"key"`
	Hash      string          `bson:"hash" json:"hash"`
	Envelope  crypto.Envelope `bson:"envelope" json:"envelope"`
	Parent    string          `bson:"parent,omitempty" json:"parent,omitempty"`
	Message   string          `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
}

// Head is a skill's current pointer.
type Head struct {
	Key         string    `bson:"key" json:"key"`
	CurrentHash string    `bson:"current_hash" json:"current_hash"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// VersionStore is scoped to a single account.
type VersionStore interface {
	// CreateVersion appends a version, idempotently on (key, hash): a
	// re-push after a failed response updates envelope and message in
	// place instead of erroring or duplicating. Returns the recorded
	// creation time.
	CreateVersion(ctx context.Context, v Version) (time.Time, error)

	// SetCurrent moves the skill's current pointer. Deliberately separate
	// from CreateVersion; a crash between the two is healed on read.
	SetCurrent(ctx context.Context, key, hash string) error

	GetVersion(ctx context.Context, key, hash string) (Version, error)

	// ListVersions returns a skill's versions newest-first by creation
	// time. limit <= 0 means all.
	ListVersions(ctx context.Context, key string, limit int) ([]Version, error)

	// ListHeads returns the current pointer of every skill. When a
	// pointer disagrees with the skill's newest version (crash between
	// CreateVersion and SetCurrent), the version history wins: the
	// pointer is re-issued and the healed value returned.
	ListHeads(ctx context.Context) ([]Head, error)
}

// Keyring is the account's key material as stored server-side: nothing in it
// lets the server decrypt anything.
type Keyring struct {
	Salt            []byte    `bson:"salt" json:"salt"`
	Wrapped         []byte    `bson:"wrapped" json:"wrapped"`
	RecoveryWrapped []byte    `bson:"recovery_wrapped" json:"recovery_wrapped"`
	KDFMemory       uint32    `bson:"kdf_m" json:"kdf_m"`
	KDFTime         uint32    `bson:"kdf_t" json:"kdf_t"`
	KDFThreads      uint8     `bson:"kdf_p" json:"kdf_p"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// KDF reassembles the cost parameters for derivation.
func (k Keyring) KDF() crypto.KDFParams {
	return crypto.KDFParams{M: k.KDFMemory, T: k.KDFTime, P: k.KDFThreads}
}

// SetKDF records the cost parameters.
func (k *Keyring) SetKDF(p crypto.KDFParams) {
	k.KDFMemory, k.KDFTime, k.KDFThreads = p.M, p.T, p.P
}

type KeyringStore interface {
	PutKeyring(ctx context.Context, kr Keyring) error
	GetKeyring(ctx context.Context) (Keyring, error)
}

// healHeads reconciles pointers against version history; shared by both
// backends. Returns the healed heads plus the keys whose pointer had to be
// re-issued.
func healHeads(heads []Head, newest map[string]Version) (out []Head, stale []Head) {
	byKey := make(map[string]Head, len(heads))
	for _, h := range heads {
		byKey[h.Key] = h
	}
	for key, v := range newest {
		h, ok := byKey[key]
		if !ok || h.CurrentHash != v.Hash {
			healed := Head{Key: key, CurrentHash: v.Hash, UpdatedAt: v.CreatedAt}
			byKey[key] = healed
			stale = append(stale, healed)
		}
	}
	for _, h := range byKey {
		out = append(out, h)
	}
	return out, stale
}
