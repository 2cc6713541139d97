package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := &Skill{
		Key:         Key{Type: TypeAgent, Name: "reviewer"},
		Description: "reviews PRs",
		Body:        "Be thorough.\n",
		Files: []SupportingFile{
			{Name: "style.md", Content: []byte("no tabs\n")},
		},
		Meta: map[string]string{"model": "opus"},
	}
	require.NoError(t, Save(root, s))

	got, err := Load(root, s.Key)
	require.NoError(t, err)
	assert.Equal(t, s.Description, got.Description)
	assert.Equal(t, s.Body, got.Body)
	assert.Equal(t, s.Files, got.Files)
	assert.Equal(t, s.Meta, got.Meta)
	assert.Equal(t, s.FullHash(), got.FullHash(), "hash must survive a disk round trip")
}

func TestLoadAll(t *testing.T) {
	root := t.TempDir()
	for _, s := range []*Skill{
		{Key: Key{Type: TypeSkill, Name: "deploy"}, Body: "a"},
		{Key: Key{Type: TypeCommand, Name: "fmt"}, Body: "b"},
		{Key: Key{Type: TypeAgent, Name: "reviewer"}, Body: "c"},
	} {
		require.NoError(t, Save(root, s))
	}
	// Stray non-skill content is ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "skills", ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skills", "notes.txt"), []byte("x"), 0o644))

	all, err := LoadAll(root)
	require.NoError(t, err)
	keys := make([]string, len(all))
	for i, s := range all {
		keys[i] = s.Key.String()
	}
	assert.Equal(t, []string{"agent:reviewer", "command:fmt", "skill:deploy"}, keys)
}

func TestSaveRejectsUnsafeFileName(t *testing.T) {
	root := t.TempDir()
	s := &Skill{
		Key:   Key{Type: TypeSkill, Name: "evil"},
		Body:  "x",
		Files: []SupportingFile{{Name: "../escape.sh", Content: []byte("!")}},
	}
	require.Error(t, Save(root, s))
}
