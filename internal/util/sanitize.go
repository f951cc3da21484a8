package util

import (
	"strings"
	"unicode"
)

// MaxFieldRunes bounds any single form field forwarded to the backend.
const MaxFieldRunes = 255

// CleanField trims a submitted form value, strips control and invisible
// Unicode characters and truncates the result to maxRunes runes. Passwords
// must not go through it.
func CleanField(value string, maxRunes int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	builder := strings.Builder{}
	builder.Grow(len(trimmed))

	for _, char := range trimmed {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}

		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(builder.String())

	// Truncate by runes (not bytes) to avoid splitting multi-byte characters.
	if maxRunes > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxRunes {
			cleaned = string(runes[:maxRunes])
		}
	}

	return cleaned
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters that should be stripped from identifiers.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u2060', // Word Joiner
		'\uFEFF': // Zero-Width No-Break Space / BOM
		return true
	}

	// Format characters (Cf category), bidi marks included
	return unicode.Is(unicode.Cf, r)
}
