package textutil

import (
	"regexp"
	"strings"
)

var illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\n\r\t]`)
var identifierLabel = regexp.MustCompile(`(?i)^(Libro\s*:|RIT\s*:|ROL\s*:)\s*`)
var innerWhitespace = regexp.MustCompile(`\s+`)
var repeatedUnderscore = regexp.MustCompile(`_+`)

// jwt-looking blobs occasionally leak into notebook option labels
var jwtToken = regexp.MustCompile(`eyJ[A-Za-z0-9-_=]+\.[A-Za-z0-9-_=]+\.?[A-Za-z0-9-_.+/=]*`)

// SanitizeFilename strips characters that are illegal in file names,
// collapses whitespace into underscores and clamps the result to
// maxRunes runes. Safe to call on untrusted registry text.
func SanitizeFilename(name string, maxRunes int) string {
	name = jwtToken.ReplaceAllString(name, "")
	name = illegalFilenameChars.ReplaceAllString(name, "_")
	name = innerWhitespace.ReplaceAllString(strings.TrimSpace(name), "_")
	name = repeatedUnderscore.ReplaceAllString(name, "_")

	runes := []rune(name)
	if maxRunes > 0 && len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}
	return strings.Trim(string(runes), "_")
}

// StripIdentifierLabel removes a leading "Libro :"/"RIT :"/"ROL :" label
// from a scraped identifier cell.
func StripIdentifierLabel(s string) string {
	return strings.TrimSpace(identifierLabel.ReplaceAllString(strings.TrimSpace(s), ""))
}

// FirstWords joins s into single-space separated words and returns at
// most n of them.
func FirstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// CollapseWhitespace trims s and squeezes runs of whitespace into one space.
func CollapseWhitespace(s string) string {
	return innerWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
