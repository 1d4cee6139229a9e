package registry

import (
	"context"
	"log/slog"
	"time"

	"causawatch-backend/lib/browser"
	"causawatch-backend/lib/htmlutil"
	"causawatch-backend/lib/retryutil"
	"causawatch-backend/services/registry/artifact"
	"causawatch-backend/services/registry/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/registry")

// SectionCount summarizes one section's traversal for the run report.
type SectionCount struct {
	Cases     int
	Movements int
	Documents int
	// cases and notebooks skipped on recoverable errors
	Skipped int
}

type Result struct {
	// retained movements in extraction order, previously-seen ones flagged
	Movements []*Movement
	// per-section counters keyed by section name
	Counts map[string]*SectionCount
}

// NewMovements returns the movements that were not already in the cross-run
// seen store. This is what the notification covers.
func (r Result) NewMovements() []*Movement {
	var out []*Movement
	for _, m := range r.Movements {
		if !m.PreviouslySeen {
			out = append(out, m)
		}
	}
	return out
}

// Traversal drives the section, page, case, notebook, movement loop.
// Everything runs on one logical thread: the detail view is a single shared
// overlay whose state would be corrupted by overlapping operations.
type Traversal struct {
	Page     browser.Page
	Pipeline *artifact.Pipeline
	Sections []Section

	// DD/MM/YYYY; rows on any other date are ignored
	TargetDate string
	OutputDir  string

	// optional cross-run store; nil disables the previously-seen flag
	Seen *db.SeenStore

	// called before a section's first page is read; the session provider
	// owns tab navigation, so this is where it is hooked in. nil means the
	// page is already positioned on the section.
	EnterSection func(ctx context.Context, section Section) error

	// inter-action pacing bounds
	JitterMin time.Duration
	JitterMax time.Duration
}

func (t *Traversal) Run(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "registry.Run")
	defer span.End()

	store := NewStore()
	result := Result{Counts: map[string]*SectionCount{}}

	for _, section := range t.Sections {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		count := &SectionCount{}
		result.Counts[section.Name] = count

		if err := t.runSection(ctx, section, store, count); err != nil {
			// section-entry failure skips the section, never the run
			slog.ErrorContext(ctx, "section skipped",
				"section", section.Name,
				"err", err,
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "section skipped")
			continue
		}
	}

	result.Movements = store.Movements()
	if t.Seen != nil {
		if err := t.recordSeen(ctx, result.Movements); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (t *Traversal) runSection(ctx context.Context, section Section, store *Store, count *SectionCount) error {
	ctx, span := tracer.Start(ctx, "registry.runSection")
	defer span.End()
	span.SetAttributes(attribute.String("section", section.Name))

	if t.EnterSection != nil {
		if err := t.EnterSection(ctx, section); err != nil {
			return err
		}
	}

	strategy := section.NewStrategy(t.Page)

	html, err := t.Page.Content(ctx)
	if err != nil {
		return err
	}
	doc, err := htmlutil.Parse(html)
	if err != nil {
		return err
	}
	total := ReadTotal(doc, section.TotalSelector)
	slog.InfoContext(ctx, "entering section",
		"section", section.Name,
		"total_records", total,
	)

	for page := range Pages(ctx, total, strategy.ChangePage) {
		cases, err := strategy.ListCases(ctx)
		if err != nil {
			slog.WarnContext(ctx, "could not list cases, skipping page",
				"section", section.Name,
				"page", page,
				"err", err,
			)
			count.Skipped++
			continue
		}

		for _, caseRow := range cases {
			count.Cases++
			t.jitter(ctx)
			if err := t.processCase(ctx, strategy, caseRow, store, count); err != nil {
				slog.WarnContext(ctx, "case skipped",
					"section", section.Name,
					"caption", caseRow.Caption,
					"err", err,
				)
				count.Skipped++
			}
			// force overlays closed even after a failed case, otherwise a
			// stale backdrop swallows the next case's clicks
			if err := strategy.CloseDetail(ctx); err != nil {
				slog.WarnContext(ctx, "overlay reset failed", "err", err)
			}
		}
	}
	return nil
}

func (t *Traversal) processCase(ctx context.Context, strategy Strategy, caseRow CaseRow, store *Store, count *SectionCount) error {
	ctx, span := tracer.Start(ctx, "registry.processCase")
	defer span.End()

	view, err := strategy.OpenDetail(ctx, caseRow)
	if err != nil {
		span.RecordError(err)
		return err
	}
	identifiers := strategy.ExtractIdentifiers(view)
	if identifiers.Caption == "" {
		identifiers.Caption = caseRow.Caption
	}

	notebooks := strategy.ListNotebooks(view)
	if len(notebooks) == 0 {
		if err := t.collectMovements(ctx, strategy, identifiers, "", store, count); err != nil {
			return err
		}
	}
	for _, notebook := range notebooks {
		t.jitter(ctx)
		if err := strategy.SelectNotebook(ctx, notebook); err != nil {
			slog.WarnContext(ctx, "notebook skipped",
				"notebook", notebook.Name,
				"err", err,
			)
			count.Skipped++
			continue
		}
		if err := t.collectMovements(ctx, strategy, identifiers, notebook.Name, store, count); err != nil {
			slog.WarnContext(ctx, "notebook movements skipped",
				"notebook", notebook.Name,
				"err", err,
			)
			count.Skipped++
		}
	}

	if lister, ok := strategy.(AppealLister); ok {
		if err := t.collectAppeals(ctx, lister, identifiers, store); err != nil {
			slog.WarnContext(ctx, "appeal record skipped", "err", err)
		}
	}
	return nil
}

func (t *Traversal) collectMovements(ctx context.Context, strategy Strategy, identifiers CaseIdentifiers, notebook string, store *Store, count *SectionCount) error {
	rows, err := strategy.ListMovementRows(ctx)
	if err != nil {
		return err
	}

	section := strategy.Section()
	for _, row := range rows {
		if row.Date != t.TargetDate {
			continue
		}

		movement := &Movement{
			Folio:       row.Folio,
			Section:     section.Name,
			Caption:     identifiers.Caption,
			Date:        row.Date,
			Identifiers: identifiers,
			Notebook:    notebook,
		}
		for _, ref := range row.Documents {
			fetched, err := t.fetch(ctx, ref, row.Date, identifiers)
			if err != nil {
				slog.WarnContext(ctx, "document dropped",
					"section", section.Name,
					"caption", movement.Caption,
					"err", err,
				)
				continue
			}
			movement.Documents = append(movement.Documents, fetched)
		}

		if !store.AddIfNew(movement) {
			// duplicate traversal path; already-fetched files simply stay
			// unreferenced
			continue
		}
		count.Movements++
		count.Documents += len(movement.Documents)
		slog.InfoContext(ctx, "movement recorded",
			"section", section.Name,
			"caption", movement.Caption,
			"folio", movement.Folio,
			"notebook", notebook,
			"documents", len(movement.Documents),
		)
	}
	return nil
}

// collectAppeals attaches files from the nested appeals record to the last
// retained movement of the same case.
func (t *Traversal) collectAppeals(ctx context.Context, lister AppealLister, identifiers CaseIdentifiers, store *Store) error {
	rows, err := lister.ListAppealRows(ctx)
	if err != nil {
		return err
	}

	var files []string
	for _, row := range rows {
		if row.Date != t.TargetDate {
			continue
		}
		for _, ref := range row.Documents {
			fetched, err := t.fetch(ctx, ref, row.Date, identifiers)
			if err != nil {
				slog.WarnContext(ctx, "appeal document dropped", "err", err)
				continue
			}
			files = append(files, fetched.FinalPath)
		}
	}
	if len(files) == 0 {
		return nil
	}

	movements := store.Movements()
	for i := len(movements) - 1; i >= 0; i-- {
		if movements[i].Identifiers == identifiers && movements[i].Date == t.TargetDate {
			movements[i].AppealFiles = append(movements[i].AppealFiles, files...)
			return nil
		}
	}
	// appeal activity with no movement of its own still counts as one
	store.AddIfNew(&Movement{
		Section:     "Corte Suprema",
		Caption:     identifiers.Caption,
		Date:        t.TargetDate,
		Identifiers: identifiers,
		AppealFiles: files,
	})
	return nil
}

func (t *Traversal) fetch(ctx context.Context, ref DocRef, date string, identifiers CaseIdentifiers) (artifact.Artifact, error) {
	return t.Pipeline.Fetch(ctx, artifact.Request{
		Token:    ref.Token,
		Endpoint: ref.Endpoint,
		Dir:      t.OutputDir,
		Date:     date,
		Fragment: identifiers.Fragment(),
		Kind:     ref.Kind,
	})
}

func (t *Traversal) recordSeen(ctx context.Context, movements []*Movement) error {
	for _, m := range movements {
		seen, err := t.Seen.Contains(ctx, m.Key())
		if err != nil {
			return err
		}
		if seen {
			m.PreviouslySeen = true
			continue
		}
		path := ""
		if len(m.Documents) > 0 {
			path = m.Documents[0].FinalPath
		}
		if err := t.Seen.Add(ctx, m.Key(), m.Section, path); err != nil {
			return err
		}
	}
	return nil
}

func (t *Traversal) jitter(ctx context.Context) {
	if t.JitterMax > 0 {
		retryutil.Jitter(ctx, t.JitterMin, t.JitterMax)
	}
}
