package viewer

import (
	"html/template"
	"io"
)

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; margin: 20px; }
h1 { font-size: 24px; margin-bottom: 20px; }
.fecha { color: #666; margin-bottom: 30px; }
.contenido { margin-top: 20px; }
.resaltado-alerta { background-color: #ffeb3b; padding: 2px; }
.resaltado-busqueda { background-color: #ffc107; padding: 2px; }
@media print {
  body { font-size: 12pt; }
  h1 { font-size: 18pt; }
}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Date}}<div class="fecha">{{.Date}}</div>{{end}}
<div class="contenido">{{.Content}}</div>
<script>window.onload = function() { window.print(); };</script>
</body>
</html>
`))

// PrintPage is the data of a standalone print page.
type PrintPage struct {
	Title   string
	Date    string
	Content template.HTML // serialized content subtree, already safe markup
}

// RenderPrint writes the print page.
func RenderPrint(w io.Writer, p PrintPage) error {
	return printTemplate.Execute(w, p)
}
