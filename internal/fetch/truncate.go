package fetch

import "strings"

// TruncateAtBoundary shortens s to at most maxChars, preferring to cut at a
// paragraph break, then a sentence end, inside the trailing 20% window. Only
// when neither exists does it hard-cut at the limit.
func TruncateAtBoundary(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}

	window := maxChars / 5
	if window < 1 {
		window = 1
	}
	lo := maxChars - window

	// Paragraph boundary first.
	if idx := strings.LastIndex(s[lo:maxChars], "\n\n"); idx >= 0 {
		return strings.TrimRight(s[:lo+idx], "\n ")
	}

	// Then a sentence end.
	best := -1
	for _, sep := range []string{". ", ".\n", "! ", "!\n", "? ", "?\n"} {
		if idx := strings.LastIndex(s[lo:maxChars], sep); idx >= 0 && lo+idx+1 > best {
			best = lo + idx + 1
		}
	}
	if best > 0 {
		return strings.TrimRight(s[:best], " ")
	}

	return s[:maxChars]
}
