package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"causawatch-backend/lib/browser"
	"causawatch-backend/lib/htmlutil"
	"causawatch-backend/lib/retryutil"
	"causawatch-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrDetailUnavailable means the case detail never became visible
	// within the bounded wait. Skip the case, continue the page.
	ErrDetailUnavailable = errors.New("case detail unavailable")
	// ErrSelectionRetryExhausted means the notebook selection control
	// stayed non-interactive through all retries. Skip the notebook only.
	ErrSelectionRetryExhausted = errors.New("selection retries exhausted")
)

// CaseRow is one visible case on the current page.
type CaseRow struct {
	Index   int
	Caption string
	// selector that opens this row's detail view
	DetailSelector string
}

// DetailView is a parsed snapshot of the rendered case detail.
type DetailView struct {
	Doc *goquery.Document
}

// DocRef is a document reference token found on a movement row, together
// with the endpoint template that resolves it.
type DocRef struct {
	Token string
	// retrieval URL template with one %s slot for the escaped token
	Endpoint string
	// artifact kind suffix, empty for ordinary resolutions
	Kind string
}

// RawRow is one movement row before the date filter.
type RawRow struct {
	Folio     string
	Date      string
	Documents []DocRef
}

// Strategy encapsulates one section's layout: where its cases, identifiers,
// notebooks and movement rows live in the rendered view.
type Strategy interface {
	Section() Section
	// ListCases parses the current page's visible case rows.
	ListCases(ctx context.Context) ([]CaseRow, error)
	// ChangePage flips the case table to the given 1-based page.
	ChangePage(ctx context.Context, page int) error
	OpenDetail(ctx context.Context, row CaseRow) (*DetailView, error)
	ExtractIdentifiers(view *DetailView) CaseIdentifiers
	// ListNotebooks is empty for sections without notebooks.
	ListNotebooks(view *DetailView) []Notebook
	SelectNotebook(ctx context.Context, nb Notebook) error
	// ListMovementRows parses the currently visible movement history.
	ListMovementRows(ctx context.Context) ([]RawRow, error)
	// CloseDetail dismisses the detail view, including a DOM-level reset
	// of any overlay left open, so no state leaks into the next case.
	CloseDetail(ctx context.Context) error
}

// AppealLister is implemented by strategies whose case detail nests a
// second court's record with its own downloadable files.
type AppealLister interface {
	ListAppealRows(ctx context.Context) ([]RawRow, error)
}

// resetOverlays force-closes every bootstrap modal. The registry leaves
// stale backdrops behind when a detail is closed mid-render, and a stale
// backdrop swallows the next case's clicks.
const resetOverlays = `
document.querySelectorAll('.modal.in, .modal[style*="display: block"]').forEach(function (m) {
	m.classList.remove('in');
	m.style.display = 'none';
});
document.querySelectorAll('.modal-backdrop').forEach(function (b) { b.remove(); });
document.body.classList.remove('modal-open');
`

// strategyCore carries the selectors shared by every section strategy and
// implements the mechanics that only differ by configuration.
type strategyCore struct {
	page    browser.Page
	section Section

	// opens a case's detail, nth-indexed per row
	lupaSelector  string
	modalSelector string
	// movement history table, scoped to the detail view
	tableSelector string
	// case list table body rows
	caseRowSelector string
	// 0-based column of the caption in a case row
	captionColumn int
	// 0-based column of the movement date
	dateColumn int
	// notebook <select>, empty for sections without notebooks
	notebookSelector string
}

func (s *strategyCore) Section() Section {
	return s.section
}

func (s *strategyCore) doc(ctx context.Context) (*goquery.Document, error) {
	html, err := s.page.Content(ctx)
	if err != nil {
		return nil, err
	}
	return htmlutil.Parse(html)
}

func (s *strategyCore) ListCases(ctx context.Context) ([]CaseRow, error) {
	doc, err := s.doc(ctx)
	if err != nil {
		return nil, err
	}

	var rows []CaseRow
	doc.Find(s.caseRowSelector).Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() <= s.captionColumn {
			return
		}
		caption := textutil.CollapseWhitespace(cells.Eq(s.captionColumn).Text())
		rows = append(rows, CaseRow{
			Index:          i,
			Caption:        caption,
			DetailSelector: fmt.Sprintf("%s >> nth=%d", s.lupaSelector, i),
		})
	})
	return rows, nil
}

func (s *strategyCore) ChangePage(ctx context.Context, page int) error {
	// the numbered control is only rendered for nearby pages; the pagina()
	// command the control itself invokes is always available
	control := fmt.Sprintf(`.pagination .page-item:not(.active) a:text-is("%d")`, page)
	if err := s.page.Click(ctx, control); err != nil {
		script := fmt.Sprintf("pagina(%d, 2);", page)
		if _, err := s.page.Evaluate(ctx, script); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
	}
	return s.page.WaitFor(ctx, s.caseRowSelector)
}

func (s *strategyCore) OpenDetail(ctx context.Context, row CaseRow) (*DetailView, error) {
	if err := s.page.Click(ctx, row.DetailSelector); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetailUnavailable, err)
	}
	if err := s.page.WaitFor(ctx, s.modalSelector); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetailUnavailable, err)
	}
	doc, err := s.doc(ctx)
	if err != nil {
		return nil, err
	}
	return &DetailView{Doc: doc}, nil
}

func (s *strategyCore) ListNotebooks(view *DetailView) []Notebook {
	if s.notebookSelector == "" {
		return nil
	}
	var notebooks []Notebook
	view.Doc.Find(s.notebookSelector + " option").Each(func(_ int, opt *goquery.Selection) {
		name := textutil.CollapseWhitespace(opt.Text())
		if name == "" {
			return
		}
		notebooks = append(notebooks, Notebook{
			Name:  name,
			Value: opt.AttrOr("value", ""),
		})
	})
	return notebooks
}

// SelectNotebook re-applies the selection until the movement table has at
// least one row. The select control is intermittently not yet interactive
// right after the detail renders, so a single attempt is not trustworthy.
func (s *strategyCore) SelectNotebook(ctx context.Context, nb Notebook) error {
	if s.notebookSelector == "" {
		return nil
	}
	err := retryutil.Do(ctx, retryutil.Options{
		Attempts: 3,
		MinDelay: 500 * time.Millisecond,
		MaxDelay: 1500 * time.Millisecond,
	}, func(ctx context.Context) error {
		if err := s.page.SelectOption(ctx, s.notebookSelector, nb.Name); err != nil {
			return err
		}
		doc, err := s.doc(ctx)
		if err != nil {
			return err
		}
		if doc.Find(s.tableSelector + " tbody tr").Length() == 0 {
			return fmt.Errorf("movement table empty after selecting %q", nb.Name)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: notebook %q: %v", ErrSelectionRetryExhausted, nb.Name, err)
	}
	return nil
}

func (s *strategyCore) CloseDetail(ctx context.Context) error {
	_, err := s.page.Evaluate(ctx, resetOverlays)
	return err
}

// movementRows parses the visible history table, extracting documents from
// each row with the section-specific extractor.
func (s *strategyCore) movementRows(ctx context.Context, docRefs func(row *goquery.Selection) []DocRef) ([]RawRow, error) {
	doc, err := s.doc(ctx)
	if err != nil {
		return nil, err
	}

	var rows []RawRow
	doc.Find(s.tableSelector + " tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() <= s.dateColumn {
			return
		}
		rows = append(rows, RawRow{
			Folio:     textutil.CollapseWhitespace(cells.Eq(0).Text()),
			Date:      cleanRowDate(cells.Eq(s.dateColumn).Text()),
			Documents: docRefs(tr),
		})
	})
	return rows, nil
}

// cleanRowDate trims a date cell and strips the parenthesized annotation
// some sections append after the date.
func cleanRowDate(raw string) string {
	date := strings.TrimSpace(raw)
	if i := strings.IndexByte(date, '('); i >= 0 {
		date = strings.TrimSpace(date[:i])
	}
	return date
}

// fallbackDocRefs scans a row's hidden inputs for token-looking fields when
// the known form is absent. The endpoint is resolved from the form action
// when it matches a known fragment, otherwise the section default is used.
func fallbackDocRefs(row *goquery.Selection, defaultEndpoint string, actionEndpoints map[string]string, kind string) []DocRef {
	var refs []DocRef
	for _, token := range htmlutil.HiddenTokenInputs(row) {
		endpoint := defaultEndpoint
		for fragment, candidate := range actionEndpoints {
			if strings.Contains(token.Action, fragment) {
				endpoint = candidate
				break
			}
		}
		refs = append(refs, DocRef{Token: token.Value, Endpoint: endpoint, Kind: kind})
	}
	return refs
}

// stripLabel removes the leading label text and separator from a labeled
// cell, leaving the value.
func stripLabel(cell, label string) string {
	value := strings.TrimSpace(cell)
	value = strings.TrimPrefix(value, label)
	value = strings.TrimLeft(value, " \t\n:")
	return textutil.CollapseWhitespace(value)
}
