package diff

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

const (
	green = "\x1b[32m"
	red   = "\x1b[31m"
	cyan  = "\x1b[36m"
)

func TestRenderAdditions(t *testing.T) {
	d := RenderDiff("line1\nline2", "line1\nline2\nline3")
	assert.Contains(t, d, "+line3")
	assert.Contains(t, d, green)
}

func TestRenderDeletions(t *testing.T) {
	d := RenderDiff("line1\nline2\nline3", "line1\nline3")
	assert.Contains(t, d, "-line2")
	assert.Contains(t, d, red)
}

func TestRenderNoChanges(t *testing.T) {
	assert.Equal(t, "", RenderDiff("same\ncontent", "same\ncontent"))
	assert.Equal(t, "", RenderDiff("", ""))
}

func TestRenderContext(t *testing.T) {
	d := RenderDiff("a\nb\nc\n", "a\nX\nc\n")
	assert.Contains(t, d, "@@")
	assert.Contains(t, d, cyan)
	assert.Contains(t, d, "\n a")
}

func TestRenderPlain(t *testing.T) {
	d := NewRenderer(false).Render("hello\n", "bye\n")
	assert.Equal(t, "--- expected\n+++ actual\n@@ -1 +1 @@\n-hello\n+bye", d)
}

func TestRenderHeadersUncolored(t *testing.T) {
	d := RenderDiff("hello\n", "bye\n")
	lines := strings.Split(d, "\n")
	assert.Equal(t, "--- expected", lines[0])
	assert.Equal(t, "+++ actual", lines[1])
	assert.True(t, strings.HasPrefix(lines[3], red+"-hello"), lines[3])
	assert.True(t, strings.HasPrefix(lines[4], green+"+bye"), lines[4])
}

func TestRenderMissingFinalNewline(t *testing.T) {
	d := NewRenderer(false).Render("a\n", "a")
	assert.NotEmpty(t, d)
	assert.Contains(t, d, noNewline[:len(noNewline)-1])
}

func TestRenderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("identical inputs render empty", prop.ForAll(
		func(s string) bool {
			return RenderDiff(s, s) == ""
		},
		gen.AnyString()))

	properties.Property("different inputs render a diff", prop.ForAll(
		func(a, b string) bool {
			return (a == b) == (NewRenderer(false).Render(a, b) == "")
		},
		gen.AlphaString(), gen.AlphaString()))

	properties.TestingRun(t)
}
