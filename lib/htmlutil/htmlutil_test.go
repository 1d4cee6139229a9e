package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const rowHtml = `
<table><tbody><tr>
	<td>1</td>
	<td>
		<form name="frmPdf" action="docCausaSuprema.php">
			<input type="hidden" name="valorFile" value="tok-abc"/>
			<input type="hidden" name="ignored" value="x"/>
		</form>
	</td>
	<td>
		<form name="frmDoc" action="docCausaApelaciones.php">
			<input type="hidden" name="valorDoc" value="tok-def"/>
			<input type="hidden" name="dtaDoc" value=""/>
		</form>
	</td>
</tr></tbody></table>`

func TestHiddenTokenInputs(t *testing.T) {
	doc, err := Parse(rowHtml)
	require.NoError(t, err)

	tokens := HiddenTokenInputs(doc.Find("tr"))
	require.Len(t, tokens, 2)
	require.Equal(t, "valorFile", tokens[0].Name)
	require.Equal(t, "tok-abc", tokens[0].Value)
	require.Equal(t, "docCausaSuprema.php", tokens[0].Action)
	require.Equal(t, "tok-def", tokens[1].Value)
}

func TestFormTokenValue(t *testing.T) {
	doc, err := Parse(rowHtml)
	require.NoError(t, err)
	row := doc.Find("tr")

	token, ok := FormTokenValue(row, "frmPdf", "valorFile")
	require.True(t, ok)
	require.Equal(t, "tok-abc", token.Value)

	_, ok = FormTokenValue(row, "frmDoc", "dtaDoc")
	require.False(t, ok, "empty token values are not usable")

	_, ok = FormTokenValue(row, "missing", "valorFile")
	require.False(t, ok)
}

func TestLabeledCellText(t *testing.T) {
	doc, err := Parse(`<table class="table-titulos"><tr>
		<td>Fecha : 01/12/2022</td>
		<td>Libro : Protección - 1234</td>
	</tr></table>`)
	require.NoError(t, err)

	text, ok := LabeledCellText(doc.Find("table"), "Libro")
	require.True(t, ok)
	require.Equal(t, "Libro : Protección - 1234", text)

	_, ok = LabeledCellText(doc.Find("table"), "RIT")
	require.False(t, ok)
}
