package snapshot

import (
	"regexp"
	"strings"
)

// Extension is appended to every snapshot name to form its file name.
const Extension = ".snapshot"

// Number of leading command tokens used to derive a name.
const nameTokens = 3

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	underscoreRuns  = regexp.MustCompile(`_+`)
)

// ResolveName returns the file name a snapshot is stored under. An explicit name is
// validated and used as is; otherwise the name is derived from argv.
func ResolveName(argv []string, explicit string) (string, error) {
	if explicit != "" {
		if err := validateName(explicit); err != nil {
			return "", err
		}
		return explicit + Extension, nil
	}

	tokens := argv
	if len(tokens) > nameTokens {
		tokens = tokens[:nameTokens]
	}
	joined := strings.Join(tokens, "_")
	derived := sanitizeName(joined)
	if derived == "" {
		return "", &InvalidNameError{Name: joined, Reason: "command does not yield a usable name, pass one explicitly"}
	}
	return derived + Extension, nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return &InvalidNameError{Name: name, Reason: "cannot be empty"}
	case strings.ContainsAny(name, `/\`) || strings.Contains(name, ".."):
		return &InvalidNameError{Name: name, Reason: "cannot contain path separators or '..'"}
	case strings.HasPrefix(name, "."):
		return &InvalidNameError{Name: name, Reason: "cannot start with '.'"}
	}
	return nil
}

func sanitizeName(s string) string {
	s = unsafeNameChars.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
