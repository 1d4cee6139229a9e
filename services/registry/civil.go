package registry

import (
	"context"
	"regexp"
	"strings"

	"causawatch-backend/lib/browser"
	"causawatch-backend/lib/htmlutil"
	"causawatch-backend/services/registry/artifact"

	"github.com/PuerkitoBio/goquery"
)

const (
	// signed resolutions and plain filings live behind different scripts;
	// the row's form action tells them apart
	civilSignedDocEndpoint = "https://oficinajudicialvirtual.pjud.cl/misCausas/civil/documentos/docuS.php?dtaDoc=%s"
	civilPlainDocEndpoint  = "https://oficinajudicialvirtual.pjud.cl/misCausas/civil/documentos/docuN.php?dtaDoc=%s"
)

// civil case roles are rendered as "C-<digits>-<year>"
var civilRolNumber = regexp.MustCompile(`C-(\d+)-`)

func CivilSection() Section {
	return Section{
		Name:          "Civil",
		TotalSelector: ".loadTotalCiv b",
		TabScript:     "buscCiv",
		HasNotebooks:  true,
		NewStrategy:   NewCivilStrategy,
	}
}

type civilStrategy struct {
	strategyCore
	signedEndpoint string
	plainEndpoint  string
}

func NewCivilStrategy(page browser.Page) Strategy {
	return &civilStrategy{
		strategyCore: strategyCore{
			page:             page,
			section:          CivilSection(),
			lupaSelector:     "#dtaTableDetalleMisCauCiv a[href*='modalAnexoCausaCivil']",
			modalSelector:    "#modalDetalleMisCauCivil",
			tableSelector:    "#historiaCiv table.table-bordered",
			caseRowSelector:  "#dtaTableDetalleMisCauCiv tbody tr",
			captionColumn:    4,
			dateColumn:       7,
			notebookSelector: "#selCuaderno",
		},
		signedEndpoint: civilSignedDocEndpoint,
		plainEndpoint:  civilPlainDocEndpoint,
	}
}

func (s *civilStrategy) ExtractIdentifiers(view *DetailView) CaseIdentifiers {
	panel := view.Doc.Find(s.modalSelector)
	ids := CaseIdentifiers{}
	if cell, ok := htmlutil.LabeledCellText(panel, "ROL"); ok {
		if m := civilRolNumber.FindStringSubmatch(cell); m != nil {
			ids.Rol = m[1]
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

func (s *civilStrategy) ListMovementRows(ctx context.Context) ([]RawRow, error) {
	return s.movementRows(ctx, func(row *goquery.Selection) []DocRef {
		if token, ok := htmlutil.FormTokenValue(row, "form", "dtaDoc"); ok {
			endpoint := s.signedEndpoint
			if strings.Contains(token.Action, "docuN.php") {
				endpoint = s.plainEndpoint
			}
			return []DocRef{{Token: token.Value, Endpoint: endpoint}}
		}
		return fallbackDocRefs(row, s.signedEndpoint, map[string]string{
			"docuS.php": s.signedEndpoint,
			"docuN.php": s.plainEndpoint,
		}, artifact.KindResolution)
	})
}
