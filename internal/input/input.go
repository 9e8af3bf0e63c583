// Package input loads the text under review.
package input

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads the review text from the file at path, or from r when path is
// empty or "-". Line endings are normalized to \n so that character offsets
// are stable across platforms. Empty input is an error: there is nothing to
// review.
func Load(path string, r io.Reader) (string, error) {
	var raw []byte
	var err error
	if path == "" || path == "-" {
		raw, err = io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("input: read stdin: %w", err)
		}
	} else {
		raw, err = os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("input: %w", err)
		}
	}

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("input: no text to review")
	}
	return text, nil
}
