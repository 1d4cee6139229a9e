package artifact

import (
	"fmt"
	"path/filepath"
	"strings"

	"causawatch-backend/lib/textutil"
)

const maxSummaryWords = 15
const maxSummaryRunes = 50

// NoSummary is the sentinel used when the document yields no usable text.
// A deliberate degradation path, not an error.
const NoSummary = "sin_resumen"

// NormalizeDate turns the registry's DD/MM/YYYY rendering into YYYYMMDD for
// lexicographically sortable file names. Malformed input is sanitized as-is
// rather than rejected, the date came from the same row that passed the
// target-date filter.
func NormalizeDate(date string) string {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return textutil.SanitizeFilename(date, 12)
	}
	return parts[2] + parts[1] + parts[0]
}

// Stem is the deterministic prefix shared by the temp file, the final file
// and the preview: <YYYYMMDD>_<identifier fragment>[_<kind>]. The stem is
// what makes the pipeline idempotent: any file in the target directory that
// starts with the stem means this document was already fetched.
func Stem(date, fragment, kind string) string {
	stem := NormalizeDate(date)
	if fragment != "" {
		stem += "_" + textutil.SanitizeFilename(fragment, 30)
	}
	if kind != "" {
		stem += "_" + kind
	}
	return stem
}

func tempPath(dir, stem string) string {
	return filepath.Join(dir, stem+"_temp.pdf")
}

func finalPath(dir, stem, summary string) string {
	clean := textutil.SanitizeFilename(summary, maxSummaryRunes)
	if clean == "" {
		clean = NoSummary
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.pdf", stem, clean))
}

func previewPath(final string) string {
	return strings.TrimSuffix(final, ".pdf") + "_preview.png"
}

// existingForStem reports a previously promoted artifact for the stem, if
// any. Temp leftovers from interrupted runs don't count.
func existingForStem(dir, stem string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, stem+"*.pdf"))
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		if strings.HasSuffix(m, "_temp.pdf") {
			continue
		}
		return m, true
	}
	return "", false
}
