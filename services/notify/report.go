// Package notify assembles the run's movements into an HTML report and
// delivers it over SMTP with the collected documents attached.
package notify

import (
	"bytes"
	"html/template"
	"path/filepath"

	"causawatch-backend/services/registry"
)

const movementsSubject = "Nuevos movimientos en el Poder Judicial"
const emptySubject = "No hay nuevos movimientos en el Poder Judicial"

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"base": filepath.Base,
	"inc":  func(i int) int { return i + 1 },
}).Parse(`<html>
<head>
<style>
	body { font-family: Arial, sans-serif; }
	.container { max-width: 800px; margin: 0 auto; padding: 20px; }
	.movimiento { margin-bottom: 30px; }
	.movimiento h3 { color: #333; margin-top: 0; }
	.movimiento ul { list-style-type: none; padding-left: 0; }
	.movimiento li { margin-bottom: 10px; }
	.movimiento strong { color: #555; }
</style>
</head>
<body>
<div class="container">
<p>Estimado,</p>
{{- if .Movements}}
<p>Junto con saludar y esperando que se encuentre muy bien, env&iacute;o movimientos nuevos en el Poder Judicial y su PDF asociado.</p>
<p>Detalle de documentos:</p>
{{- range $i, $m := .Movements}}
<div class="movimiento">
<h3>Movimiento {{inc $i}}:</h3>
<ul>
	<li><strong>Secci&oacute;n:</strong> {{$m.Section}}</li>
	<li><strong>N&deg; Causa:</strong> {{$m.CaseNumber}}</li>
	<li><strong>Caratulado:</strong> {{$m.Caption}}</li>
	{{- if $m.Notebook}}
	<li><strong>Historia Causa Cuaderno:</strong> {{$m.Notebook}}</li>
	{{- end}}
	<li><strong>Fecha Tr&aacute;mite:</strong> {{$m.Date}}</li>
	<li><strong>Documento:</strong> {{$m.DocumentName}}</li>
	{{- if $m.AppealFiles}}
	<li><strong>Apelaciones:</strong>
		<ul><li>Archivos
			<ul>
			{{- range $m.AppealFiles}}
				<li>{{base .}}</li>
			{{- end}}
			</ul>
		</li></ul>
	</li>
	{{- end}}
</ul>
</div>
{{- end}}
{{- else}}
<p>Junto con saludar y esperando que se encuentre muy bien, le informo que no se encontraron nuevos movimientos para reportar en el Poder Judicial.</p>
<p>Saludos cordiales</p>
{{- end}}
</div>
</body>
</html>
`))

// Report is a rendered notification plus the files to attach.
type Report struct {
	Subject     string
	HTML        string
	Attachments []string
}

type reportMovement struct {
	Section      string
	CaseNumber   string
	Caption      string
	Notebook     string
	Date         string
	DocumentName string
	AppealFiles  []string
}

func caseNumber(ids registry.CaseIdentifiers) string {
	switch {
	case ids.Book != "":
		return ids.Book
	case ids.Rol != "":
		return ids.Rol
	case ids.Rit != "":
		return ids.Rit
	}
	return ids.Caption
}

// BuildReport renders the notification for the given movements. A run with
// no movements yields a distinct "nothing new" body with no attachments.
func BuildReport(movements []*registry.Movement) (Report, error) {
	report := Report{Subject: emptySubject}

	var rendered []reportMovement
	for _, m := range movements {
		document := "No disponible"
		for _, doc := range m.Documents {
			if doc.FinalPath == "" {
				continue
			}
			if document == "No disponible" {
				document = filepath.Base(doc.FinalPath)
			}
			report.Attachments = append(report.Attachments, doc.FinalPath)
			if doc.PreviewPath != "" {
				report.Attachments = append(report.Attachments, doc.PreviewPath)
			}
		}
		report.Attachments = append(report.Attachments, m.AppealFiles...)

		rendered = append(rendered, reportMovement{
			Section:      m.Section,
			CaseNumber:   caseNumber(m.Identifiers),
			Caption:      m.Caption,
			Notebook:     m.Notebook,
			Date:         m.Date,
			DocumentName: document,
			AppealFiles:  m.AppealFiles,
		})
	}
	if len(rendered) > 0 {
		report.Subject = movementsSubject
	}

	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, struct {
		Movements []reportMovement
	}{rendered})
	if err != nil {
		return Report{}, err
	}
	report.HTML = buf.String()
	return report, nil
}
