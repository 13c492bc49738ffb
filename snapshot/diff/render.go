// Package diff renders the difference between a stored snapshot and fresh output,
// and asks the operator whether to accept it.
package diff

import (
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	contextLines = 3
	noNewline    = "\\ No newline at end of file\n"
)

// Renderer turns two texts into a unified diff, optionally colorized.
type Renderer struct {
	add  *color.Color
	del  *color.Color
	hunk *color.Color
}

// NewRenderer returns a Renderer. When colorize is set, color is emitted even if
// stdout is not a terminal.
func NewRenderer(colorize bool) *Renderer {
	r := &Renderer{
		add:  color.New(color.FgGreen),
		del:  color.New(color.FgRed),
		hunk: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{r.add, r.del, r.hunk} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

var colorRenderer = NewRenderer(true)

// RenderDiff is a colorized unified diff from expected to actual. Identical
// inputs render as the empty string.
func RenderDiff(expected, actual string) string {
	return colorRenderer.Render(expected, actual)
}

func (r *Renderer) Render(expected, actual string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(expected),
		B:        splitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  contextLines,
	})
	if err != nil || text == "" {
		return ""
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			lines[i] = r.add.Sprint(line)
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			lines[i] = r.del.Sprint(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = r.hunk.Sprint(line)
		}
	}
	return strings.Join(lines, "\n")
}

// splitLines keeps line endings. A final line without one is marked the way
// diff(1) does, so "a" and "a\n" still differ.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] = last + "\n" + noNewline
	}
	return lines
}
