package registry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"causawatch-backend/lib/browser"
	"causawatch-backend/lib/browser/browsertest"
	"causawatch-backend/services/registry/artifact"

	"github.com/stretchr/testify/require"
)

const targetDate = "17/05/2024"

func validPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	writeObj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n")
	xref := buf.Len()
	buf.WriteString("xref\n0 4\n0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	buf.WriteString("trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n")
	fmt.Fprintf(&buf, "%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func civilCaseTable(total, visible int, captions ...string) string {
	html := fmt.Sprintf(`<div class="loadTotalCiv">Total: <b>%d</b></div>`, total)
	html += `<table id="dtaTableDetalleMisCauCiv"><tbody>`
	for i := 0; i < visible; i++ {
		caption := "DEMANDANTE c/ DEMANDADO"
		if i < len(captions) {
			caption = captions[i]
		}
		html += fmt.Sprintf(`
<tr>
	<td><a href="#modalAnexoCausaCivil">&#128269;</a></td>
	<td>%d</td>
	<td>C-%d-2024</td>
	<td>%s</td>
	<td>%s</td>
	<td>1er Juzgado Civil</td>
</tr>`, i+1, i+1, targetDate, caption)
	}
	return html + `</tbody></table>`
}

// the §8 end-to-end walk: a 16-case section paginates to two pages, the lone
// page-2 case has two notebooks, one movement on the target date in notebook
// A, none in notebook B
func TestTraversalCivilSixteenCases(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(validPDF())
	}))
	defer server.Close()

	page1 := civilCaseTable(16, 15)
	page2 := civilCaseTable(16, 1, "BANCO c/ PEREZ")

	detail2 := page2 + `
<div id="modalDetalleMisCauCivil">
	<table class="table-titulos"><tbody><tr>
		<td>ROL: C-5678-2024</td>
		<td>Caratulado: BANCO c/ PEREZ</td>
	</tr></tbody></table>
	<select id="selCuaderno">
		<option value="1">Principal</option>
		<option value="2">Incidente</option>
	</select>
</div>`

	historyA := detail2 + `
<div id="historiaCiv"><table class="table-bordered"><tbody>
<tr>
	<td>3</td>
	<td><form name="form" action="docuS.php" method="post">
		<input type="hidden" name="dtaDoc" value="tokA"/>
	</form></td>
	<td></td><td></td><td></td><td></td><td></td>
	<td>` + targetDate + `</td>
</tr>
</tbody></table></div>`

	historyB := detail2 + `
<div id="historiaCiv"><table class="table-bordered"><tbody>
<tr>
	<td>9</td>
	<td></td>
	<td></td><td></td><td></td><td></td><td></td>
	<td>02/01/2024</td>
</tr>
</tbody></table></div>`

	page := browsertest.New(page1)
	lupa := "#dtaTableDetalleMisCauCiv a[href*='modalAnexoCausaCivil']"

	// page-1 cases open a detail with no notebooks and no history
	page1Detail := page1 + `
<div id="modalDetalleMisCauCivil">
	<table class="table-titulos"><tbody><tr><td>ROL: C-1-2024</td></tr></tbody></table>
</div>`
	for i := 0; i < 15; i++ {
		page.ClickHandlers[fmt.Sprintf("%s >> nth=%d", lupa, i)] = func() {
			page.SetHTML(page1Detail)
		}
	}

	page.ClickHandlers[`.pagination .page-item:not(.active) a:text-is("2")`] = func() {
		page.SetHTML(page2)
		// the lone page-2 case reuses the first row's control
		page.ClickHandlers[fmt.Sprintf("%s >> nth=0", lupa)] = func() {
			page.SetHTML(detail2)
		}
	}

	page.SelectHandlers["#selCuaderno"] = func(option string) error {
		switch option {
		case "Principal":
			page.SetHTML(historyA)
		case "Incidente":
			page.SetHTML(historyB)
		}
		return nil
	}

	dir := t.TempDir()
	section := CivilSection()
	section.NewStrategy = func(p browser.Page) Strategy {
		strategy := NewCivilStrategy(p).(*civilStrategy)
		strategy.signedEndpoint = server.URL + "/docuS.php?dtaDoc=%s"
		strategy.plainEndpoint = server.URL + "/docuN.php?dtaDoc=%s"
		return strategy
	}

	traversal := &Traversal{
		Page:       page,
		Pipeline:   artifact.NewPipeline(artifact.PipelineOptions{}),
		Sections:   []Section{section},
		TargetDate: targetDate,
		OutputDir:  dir,
	}

	result, err := traversal.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Movements, 1)
	movement := result.Movements[0]
	require.Equal(t, "Civil", movement.Section)
	require.Equal(t, "BANCO c/ PEREZ", movement.Caption)
	require.Equal(t, "Principal", movement.Notebook)
	require.Equal(t, "3", movement.Folio)
	require.Equal(t, "5678", movement.Identifiers.Rol)

	require.Len(t, movement.Documents, 1)
	require.Equal(t,
		filepath.Join(dir, "20240517_5678_sin_resumen.pdf"),
		movement.Documents[0].FinalPath)
	require.Equal(t, 1, requests)

	count := result.Counts["Civil"]
	require.Equal(t, 16, count.Cases)
	require.Equal(t, 1, count.Movements)
	require.Equal(t, 1, count.Documents)
}

// one failing download out of two leaves a movement with exactly one artifact
func TestTraversalPartialDocumentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dtaDoc") == "bad" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(validPDF())
	}))
	defer server.Close()

	history := `
<div class="loadTotalCiv">Total: <b>1</b></div>
<table id="dtaTableDetalleMisCauCiv"><tbody>
<tr>
	<td><a href="#modalAnexoCausaCivil">x</a></td>
	<td>1</td><td>C-7-2024</td><td>` + targetDate + `</td>
	<td>SOTO c/ ROJAS</td><td>Juzgado</td>
</tr>
</tbody></table>
<div id="modalDetalleMisCauCivil">
	<table class="table-titulos"><tbody><tr><td>ROL: C-7-2024</td></tr></tbody></table>
</div>
<div id="historiaCiv"><table class="table-bordered"><tbody>
<tr>
	<td>5</td>
	<td>
		<form name="frmUno" action="docuS.php"><input type="hidden" name="dtaDoc" value="bad"/></form>
		<form name="frmDos" action="docuS.php"><input type="hidden" name="dtaDoc" value="good"/></form>
	</td>
	<td></td><td></td><td></td><td></td><td></td>
	<td>` + targetDate + `</td>
</tr>
</tbody></table></div>`

	page := browsertest.New(history)
	lupa := "#dtaTableDetalleMisCauCiv a[href*='modalAnexoCausaCivil']"
	page.ClickHandlers[fmt.Sprintf("%s >> nth=0", lupa)] = func() {}

	section := CivilSection()
	section.NewStrategy = func(p browser.Page) Strategy {
		strategy := NewCivilStrategy(p).(*civilStrategy)
		strategy.signedEndpoint = server.URL + "/docuS.php?dtaDoc=%s"
		strategy.plainEndpoint = server.URL + "/docuN.php?dtaDoc=%s"
		// this fixture renders the history without notebooks
		strategy.notebookSelector = ""
		return strategy
	}

	traversal := &Traversal{
		Page:       page,
		Pipeline:   artifact.NewPipeline(artifact.PipelineOptions{}),
		Sections:   []Section{section},
		TargetDate: targetDate,
		OutputDir:  t.TempDir(),
	}

	result, err := traversal.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Movements, 1)
	require.Len(t, result.Movements[0].Documents, 1)
	require.Equal(t, "good", result.Movements[0].Documents[0].Token)
}
