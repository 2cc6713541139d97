package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefs(t *testing.T) {
	known := []string{"deploy", "review", "fmt"}
	body := "First run /fmt, then /deploy. See also /deploy and /unknown.\nPaths like a/b/c or https://x/review do not count."
	assert.Equal(t, []string{"deploy", "fmt"}, Refs(body, known))
}

func TestRefsEmpty(t *testing.T) {
	assert.Nil(t, Refs("run /deploy", nil))
	assert.Nil(t, Refs("", []string{"deploy"}))
	assert.Nil(t, Refs("no references here", []string{"deploy"}))
}

func TestRefsStartOfLine(t *testing.T) {
	assert.Equal(t, []string{"deploy"}, Refs("/deploy now", []string{"deploy"}))
}
