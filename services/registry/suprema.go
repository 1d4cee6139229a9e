package registry

import (
	"context"
	"regexp"

	"causawatch-backend/lib/browser"
	"causawatch-backend/lib/htmlutil"
	"causawatch-backend/services/registry/artifact"

	"github.com/PuerkitoBio/goquery"
)

const (
	supremaDocEndpoint     = "https://oficinajudicialvirtual.pjud.cl/misCausas/suprema/documentos/docCausaSuprema.php?valorFile=%s"
	apelacionesDocEndpoint = "https://oficinajudicialvirtual.pjud.cl/misCausas/apelaciones/documentos/docCausaApelaciones.php?valorDoc=%s"
)

// book number rendered as "<type> / <digits>" in the Libro cell
var supremaBookNumber = regexp.MustCompile(`/\s*(\d+)`)

func SupremaSection() Section {
	return Section{
		Name:          "Corte Suprema",
		TotalSelector: ".loadTotalSup b",
		TabScript:     "buscSup",
		NewStrategy:   NewSupremaStrategy,
	}
}

// supremaStrategy reads the supreme court section. Its case detail nests the
// appeals-court record of the same case under a second tab, whose files are
// collected as ancillary artifacts.
type supremaStrategy struct {
	strategyCore
	docEndpoint    string
	appealEndpoint string
}

func NewSupremaStrategy(page browser.Page) Strategy {
	return &supremaStrategy{
		strategyCore: strategyCore{
			page:            page,
			section:         SupremaSection(),
			lupaSelector:    "#dtaTableDetalleMisCauSup tbody tr td a[href*='modalDetalleMisCauSuprema']",
			modalSelector:   "#modalDetalleMisCauSuprema",
			tableSelector:   "#modalDetalleMisCauSuprema table.table-bordered",
			caseRowSelector: "#dtaTableDetalleMisCauSup tbody tr",
			captionColumn:   3,
			dateColumn:      5,
		},
		docEndpoint:    supremaDocEndpoint,
		appealEndpoint: apelacionesDocEndpoint,
	}
}

func (s *supremaStrategy) ExtractIdentifiers(view *DetailView) CaseIdentifiers {
	panel := view.Doc.Find(s.modalSelector)
	ids := CaseIdentifiers{}
	if cell, ok := htmlutil.LabeledCellText(panel, "Libro"); ok {
		if m := supremaBookNumber.FindStringSubmatch(cell); m != nil {
			ids.Book = m[1]
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

func (s *supremaStrategy) ListMovementRows(ctx context.Context) ([]RawRow, error) {
	return s.movementRows(ctx, func(row *goquery.Selection) []DocRef {
		if token, ok := htmlutil.FormTokenValue(row, "frmPdf", "valorFile"); ok {
			return []DocRef{{Token: token.Value, Endpoint: s.docEndpoint}}
		}
		return fallbackDocRefs(row, s.docEndpoint, map[string]string{
			"docCausaSuprema": s.docEndpoint,
		}, artifact.KindResolution)
	})
}

// ListAppealRows parses the nested appeals-court tab of the open detail.
// Rows there follow the appeals layout, not the supreme one.
func (s *supremaStrategy) ListAppealRows(ctx context.Context) ([]RawRow, error) {
	nested := strategyCore{
		page:          s.page,
		tableSelector: "#movimientosApe table.table-bordered",
		dateColumn:    6,
	}
	return nested.movementRows(ctx, func(row *goquery.Selection) []DocRef {
		if token, ok := htmlutil.FormTokenValue(row, "frmDoc", "valorDoc"); ok {
			return []DocRef{{Token: token.Value, Endpoint: s.appealEndpoint, Kind: artifact.KindAppeal}}
		}
		return fallbackDocRefs(row, s.appealEndpoint, map[string]string{
			"docCausaApelaciones": s.appealEndpoint,
		}, artifact.KindAppeal)
	})
}
