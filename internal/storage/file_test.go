package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a14a-org/claudeskill-manager/internal/crypto"
)

func testVersion(key, hash, parent string) Version {
	return Version{
		Key:      key,
		Hash:     hash,
		Envelope: crypto.Envelope{Ciphertext: "Y3Q=", Nonce: "bm9uY2U=", Tag: "dGFn"},
		Parent:   parent,
		Message:  "m",
	}
}

func TestCreateVersionIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(t.TempDir())

	first, err := fs.CreateVersion(ctx, testVersion("skill:deploy", "aaaa", ""))
	require.NoError(t, err)

	// Same (key, hash) again: no duplicate, original creation time kept,
	// envelope refreshed.
	retry := testVersion("skill:deploy", "aaaa", "")
	retry.Envelope.Ciphertext = "cmV0cnk="
	retry.Message = "retried"
	second, err := fs.CreateVersion(ctx, retry)
	require.NoError(t, err)
	assert.True(t, first.Equal(second), "retry must keep the original creation time")

	vs, err := fs.ListVersions(ctx, "skill:deploy", 0)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "cmV0cnk=", vs[0].Envelope.Ciphertext)
	assert.Equal(t, "retried", vs[0].Message)
}

func TestListVersionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(t.TempDir())

	for _, h := range []string{"h1", "h2", "h3"} {
		_, err := fs.CreateVersion(ctx, testVersion("skill:deploy", h, ""))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	vs, err := fs.ListVersions(ctx, "skill:deploy", 0)
	require.NoError(t, err)
	require.Len(t, vs, 3)
	assert.Equal(t, "h3", vs[0].Hash)
	assert.Equal(t, "h1", vs[2].Hash)

	limited, err := fs.ListVersions(ctx, "skill:deploy", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetVersionNotFound(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	_, err := fs.GetVersion(context.Background(), "skill:deploy", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHeadsSelfHeal(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(t.TempDir())

	_, err := fs.CreateVersion(ctx, testVersion("skill:deploy", "h1", ""))
	require.NoError(t, err)
	require.NoError(t, fs.SetCurrent(ctx, "skill:deploy", "h1"))

	// Simulate a crash between CreateVersion and SetCurrent: a newer
	// version exists but the pointer still names h1.
	time.Sleep(5 * time.Millisecond)
	_, err = fs.CreateVersion(ctx, testVersion("skill:deploy", "h2", "h1"))
	require.NoError(t, err)

	heads, err := fs.ListHeads(ctx)
	require.NoError(t, err)
	require.Len(t, heads, 1)
	assert.Equal(t, "h2", heads[0].CurrentHash, "version history must win over a stale pointer")

	// And the heal is persistent, not recomputed per read.
	again, err := fs.ListHeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, heads, again)
}

func TestHeadsForPointerlessVersion(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(t.TempDir())

	// A version whose pointer write never happened at all.
	_, err := fs.CreateVersion(ctx, testVersion("agent:reviewer", "h9", ""))
	require.NoError(t, err)

	heads, err := fs.ListHeads(ctx)
	require.NoError(t, err)
	require.Len(t, heads, 1)
	assert.Equal(t, "agent:reviewer", heads[0].Key)
	assert.Equal(t, "h9", heads[0].CurrentHash)
}

func TestKeyringRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(t.TempDir())

	_, err := fs.GetKeyring(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	kr := Keyring{Salt: []byte("0123456789abcdef"), Wrapped: []byte{1, 2, 3}, RecoveryWrapped: []byte{4, 5, 6}}
	kr.SetKDF(crypto.DefaultKDF())
	require.NoError(t, fs.PutKeyring(ctx, kr))

	got, err := fs.GetKeyring(ctx)
	require.NoError(t, err)
	assert.Equal(t, kr.Salt, got.Salt)
	assert.Equal(t, kr.Wrapped, got.Wrapped)
	assert.Equal(t, kr.RecoveryWrapped, got.RecoveryWrapped)
	assert.Equal(t, crypto.DefaultKDF(), got.KDF())
	assert.False(t, got.UpdatedAt.IsZero())
}
