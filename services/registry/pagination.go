package registry

import (
	"context"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const pageSize = 15

// PageChanger flips the current case table to the given 1-based page and
// waits for its content to settle.
type PageChanger func(ctx context.Context, page int) error

// Pages returns a finite, restartable sequence of 1-based page indices for
// total records at the fixed page size. A total of 0 (unreadable counter)
// degrades to a single page. The changer runs before every yield after the
// first; a changer error skips that page and iteration continues.
func Pages(ctx context.Context, total int, change PageChanger) iter.Seq[int] {
	pages := 1
	if total > pageSize {
		pages = (total + pageSize - 1) / pageSize
	}

	return func(yield func(int) bool) {
		for p := 1; p <= pages; p++ {
			if p > 1 && change != nil {
				if err := change(ctx, p); err != nil {
					slog.WarnContext(ctx, "page change failed, skipping page",
						"page", p,
						"err", err,
					)
					continue
				}
			}
			if !yield(p) {
				return
			}
		}
	}
}

// ReadTotal parses the section's record counter. Non-digits are stripped
// before parsing; any failure degrades to 0, which the walker treats as a
// single page.
func ReadTotal(doc *goquery.Document, selector string) int {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0
	}
	total, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return total
}
