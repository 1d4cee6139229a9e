package registry

import (
	"context"
	"regexp"

	"causawatch-backend/lib/browser"
	"causawatch-backend/lib/htmlutil"
	"causawatch-backend/services/registry/artifact"

	"github.com/PuerkitoBio/goquery"
)

const cobranzaDocEndpoint = "https://oficinajudicialvirtual.pjud.cl/misCausas/cobranza/documentos/docuCobranza.php?dtaDoc=%s"

// collections dockets are rendered as "D-<digits>-<year>"
var cobranzaRitNumber = regexp.MustCompile(`D-(\d+)-`)

func CobranzaSection() Section {
	return Section{
		Name:          "Cobranza",
		TotalSelector: ".loadTotalCob b",
		TabScript:     "buscCob",
		HasNotebooks:  true,
		NewStrategy:   NewCobranzaStrategy,
	}
}

type cobranzaStrategy struct {
	strategyCore
	docEndpoint string
}

func NewCobranzaStrategy(page browser.Page) Strategy {
	return &cobranzaStrategy{
		strategyCore: strategyCore{
			page:             page,
			section:          CobranzaSection(),
			lupaSelector:     "#dtaTableDetalleMisCauCob a[href*='modalAnexoCausaCobranza']",
			modalSelector:    "#modalDetalleMisCauCobranza",
			tableSelector:    "#historiaCob table.table-bordered",
			caseRowSelector:  "#dtaTableDetalleMisCauCob tbody tr",
			captionColumn:    4,
			dateColumn:       8,
			notebookSelector: "#selCuadernoCob",
		},
		docEndpoint: cobranzaDocEndpoint,
	}
}

func (s *cobranzaStrategy) ExtractIdentifiers(view *DetailView) CaseIdentifiers {
	panel := view.Doc.Find(s.modalSelector)
	ids := CaseIdentifiers{}
	if cell, ok := htmlutil.LabeledCellText(panel, "RIT"); ok {
		if m := cobranzaRitNumber.FindStringSubmatch(cell); m != nil {
			ids.Rit = m[1]
		}
	}
	if cell, ok := htmlutil.LabeledCellText(panel, "Caratulado"); ok {
		ids.Caption = stripLabel(cell, "Caratulado")
	}
	if cell, ok := htmlutil.LabeledCellText(panel, "Tribunal"); ok {
		ids.Tribunal = stripLabel(cell, "Tribunal")
	}
	return ids
}

func (s *cobranzaStrategy) ListMovementRows(ctx context.Context) ([]RawRow, error) {
	return s.movementRows(ctx, func(row *goquery.Selection) []DocRef {
		if token, ok := htmlutil.FormTokenValue(row, "frmDocH", "dtaDoc"); ok {
			return []DocRef{{Token: token.Value, Endpoint: s.docEndpoint}}
		}
		return fallbackDocRefs(row, s.docEndpoint, map[string]string{
			"docuCobranza": s.docEndpoint,
		}, artifact.KindResolution)
	})
}
