package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	k, err := ParseKey("skill:deploy")
	require.NoError(t, err)
	assert.Equal(t, Key{Type: TypeSkill, Name: "deploy"}, k)
	assert.Equal(t, "skill:deploy", k.String())

	for _, bad := range []string{"", "deploy", "plugin:deploy", "skill:", ":deploy"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, "key %q", bad)
	}
}

func TestValidName(t *testing.T) {
	for _, name := range []string{"deploy", "release-notes.v2", "A", "x_1"} {
		assert.True(t, ValidName(name), "name %q", name)
	}

	// Names become directory names locally and path segments on the server;
	// separators, "..", ":" and leading dots must never pass.
	for _, name := range []string{
		"", ".", "..", ".hidden", "../../../etc", "a/b", `a\b`, "a:b", "a b",
	} {
		assert.False(t, ValidName(name), "name %q", name)
	}

	_, err := ParseKey("skill:../../../x")
	assert.ErrorIs(t, err, ErrBadName)
}

func TestSaveRejectsUnsafeSkillName(t *testing.T) {
	root := t.TempDir()
	s := &Skill{
		Key:  Key{Type: TypeSkill, Name: "../escape"},
		Body: "x",
	}
	err := Save(root, s)
	require.ErrorIs(t, err, ErrBadName)
}
