package registry

import (
	"context"
	"regexp"

	"causawatch-backend/lib/browser"
	"causawatch-backend/lib/htmlutil"
	"causawatch-backend/services/registry/artifact"

	"github.com/PuerkitoBio/goquery"
)

// appeals book numbers are rendered as "Protección - <digits>"
var apelacionesBookNumber = regexp.MustCompile(`Protección\s*-\s*(\d+)`)

func ApelacionesSection() Section {
	return Section{
		Name:          "Corte Apelaciones",
		TotalSelector: ".loadTotalApe b",
		TabScript:     "buscApe",
		NewStrategy:   NewApelacionesStrategy,
	}
}

type apelacionesStrategy struct {
	strategyCore
	docEndpoint string
}

func NewApelacionesStrategy(page browser.Page) Strategy {
	return &apelacionesStrategy{
		strategyCore: strategyCore{
			page:            page,
			section:         ApelacionesSection(),
			lupaSelector:    "#dtaTableDetalleMisCauApe a[href*='modalDetalleMisCauApelaciones']",
			modalSelector:   "#modalDetalleMisCauApelaciones",
			tableSelector:   "#modalDetalleMisCauApelaciones #movimientosApe table.table-bordered",
			caseRowSelector: "#dtaTableDetalleMisCauApe tbody tr",
			captionColumn:   4,
			dateColumn:      6,
		},
		docEndpoint: apelacionesDocEndpoint,
	}
}

func (s *apelacionesStrategy) ExtractIdentifiers(view *DetailView) CaseIdentifiers {
	panel := view.Doc.Find(s.modalSelector)
	ids := CaseIdentifiers{}
	if cell, ok := htmlutil.LabeledCellText(panel, "Libro"); ok {
		if m := apelacionesBookNumber.FindStringSubmatch(cell); m != nil {
			ids.Book = m[1]
		}
	}
	if cell, ok := htmlutil.LabeledCellText(panel, "Caratulado"); ok {
		ids.Caption = stripLabel(cell, "Caratulado")
	}
	if cell, ok := htmlutil.LabeledCellText(panel, "Corte"); ok {
		ids.Tribunal = stripLabel(cell, "Corte")
	}
	return ids
}

func (s *apelacionesStrategy) ListMovementRows(ctx context.Context) ([]RawRow, error) {
	return s.movementRows(ctx, func(row *goquery.Selection) []DocRef {
		if token, ok := htmlutil.FormTokenValue(row, "frmDoc", "valorDoc"); ok {
			return []DocRef{{Token: token.Value, Endpoint: s.docEndpoint}}
		}
		return fallbackDocRefs(row, s.docEndpoint, map[string]string{
			"docCausaApelaciones": s.docEndpoint,
		}, artifact.KindResolution)
	})
}
