package artifact

import (
	"strings"

	"causawatch-backend/lib/textutil"

	"github.com/ledongthuc/pdf"
)

// disclaimer lines the registry stamps on every document; they carry no
// information about the resolution itself and would otherwise dominate the
// derived name
var boilerplatePhrases = []string{
	"firma electrónica",
	"verificadoc.pjud.cl",
	"horaoficial.cl",
	"puede ser validado",
	"establecido en chile",
	"para más información",
}

// ExtractSummary reads the first page of the document and returns up to 15
// words of its useful text. Returns NoSummary when the document has no
// pages, no text layer, or only boilerplate.
func ExtractSummary(path string) string {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return NoSummary
	}
	defer f.Close()

	if reader.NumPage() < 1 {
		return NoSummary
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return NoSummary
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return NoSummary
	}

	summary := SummarizeText(text)
	if summary == "" {
		return NoSummary
	}
	return summary
}

// SummarizeText filters boilerplate lines out of raw first-page text and
// clamps the remainder to the first 15 words. Split out from ExtractSummary
// so the filtering is testable without rendering PDFs.
func SummarizeText(text string) string {
	var useful []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		skip := false
		for _, phrase := range boilerplatePhrases {
			if strings.Contains(lower, phrase) {
				skip = true
				break
			}
		}
		if !skip {
			useful = append(useful, line)
		}
	}
	return textutil.FirstWords(strings.Join(useful, " "), maxSummaryWords)
}
