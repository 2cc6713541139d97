package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	doc := "---\nname: reviewer\ndescription: reviews PRs\nmodel: opus\ncolor: blue\n---\nBe thorough.\n"
	s, err := ParseDocument(doc, Key{Type: TypeAgent, Name: "reviewer"})
	require.NoError(t, err)
	assert.Equal(t, "reviews PRs", s.Description)
	assert.Equal(t, "Be thorough.\n", s.Body)
	assert.Equal(t, map[string]string{"model": "opus", "color": "blue"}, s.Meta)
}

func TestParseDocumentNoFrontmatter(t *testing.T) {
	s, err := ParseDocument("just a body\n", Key{Type: TypeCommand, Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "just a body\n", s.Body)
	assert.Empty(t, s.Meta)
}

func TestParseDocumentNameMismatch(t *testing.T) {
	doc := "---\nname: other\n---\nbody"
	_, err := ParseDocument(doc, Key{Type: TypeSkill, Name: "deploy"})
	require.Error(t, err)
}

func TestRenderParseRoundTrip(t *testing.T) {
	s := &Skill{
		Key:         Key{Type: TypeSkill, Name: "deploy"},
		Description: "ship: it, carefully",
		Body:        "# Deploy\n\nSteps here.\n",
		Meta:        map[string]string{"zeta": "last", "alpha": "first", "tricky": "a: b"},
	}
	out, err := ParseDocument(RenderDocument(s), s.Key)
	require.NoError(t, err)
	assert.Equal(t, s.Description, out.Description)
	assert.Equal(t, s.Body, out.Body)
	assert.Equal(t, s.Meta, out.Meta, "sidecar keys must survive the round trip")
}

func TestRenderDeterministic(t *testing.T) {
	s := &Skill{
		Key:  Key{Type: TypeCommand, Name: "fmt"},
		Body: "body",
		Meta: map[string]string{"b": "2", "a": "1", "c": "3"},
	}
	first := RenderDocument(s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, RenderDocument(s))
	}
}
