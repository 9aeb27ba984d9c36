package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a topic into a filesystem-safe base name.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = unsafeNameRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "document"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}

// UniquePath returns dir/base+ext, appending _1, _2, … until the name is
// free, so repeated runs never overwrite earlier output.
func UniquePath(dir, base, ext string) string {
	candidate := filepath.Join(dir, base+ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}
}

// Write renders the document and writes it to a collision-free path under
// dir, returning the path used.
func (d *Document) Write(dir, baseName string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := UniquePath(dir, Slugify(baseName), ".md")
	if err := os.WriteFile(path, []byte(d.Markdown()), 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}
