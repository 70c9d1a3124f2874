package markup

import (
	"bytes"
	"fmt"
	"html/template"
)

const receiptHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    @page { size: {{.PageSize}}; margin: {{.PageMargin}}; }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: {{.Font}};
      font-size: {{.FontSize}};
      color: #000000;
      background: #ffffff;
    }
    .receipt {
      width: {{.Width}};
      margin: 0 auto;
      padding: 2mm;
    }
    .center { text-align: center; }
    .title { font-weight: bold; font-size: 1.2em; }
    .store { font-weight: bold; font-size: 1.4em; }
    hr { border: 0; border-top: 1px dashed #000000; margin: 4px 0; }
    table { width: 100%; border-collapse: collapse; }
    td, th { padding: 1px 0; vertical-align: top; }
    th { text-align: left; border-bottom: 1px solid #000000; }
    .num { text-align: right; white-space: nowrap; }
    .row { display: flex; justify-content: space-between; }
    .grand { font-weight: bold; font-size: 1.2em; }
  </style>
</head>
<body>
  <div class="receipt" data-dialect="{{.Doc.Layout.Dialect}}" data-columns="{{.Doc.Layout.Columns}}">
    {{range .Doc.Blocks}}
    {{if eq .Kind "header"}}
    <div class="header center">
      {{if .Title}}<div class="title">{{.Title}}</div>{{end}}
      {{range $i, $l := .Lines}}
      {{if $l.Label}}<div class="row"><span>{{$l.Label}}</span><span>{{$l.Value}}</span></div>
      {{else if eq $i 0}}<div class="store">{{$l.Value}}</div>
      {{else}}<div>{{$l.Value}}</div>{{end}}
      {{end}}
    </div>
    <hr />
    {{else if eq .Kind "customer"}}
    <div class="customer">
      {{range .Lines}}<div class="row"><span>{{.Label}}</span><span>{{.Value}}</span></div>{{end}}
    </div>
    <hr />
    {{else if eq .Kind "items"}}
    <table class="items">
      <thead><tr><th>Item</th><th class="num">Qty</th><th class="num">Rate</th><th class="num">Amount</th></tr></thead>
      <tbody>
        {{range .Items}}
        <tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.Amount}}</td></tr>
        {{end}}
      </tbody>
    </table>
    <hr />
    {{else if eq .Kind "totals"}}
    <div class="totals">
      {{range .Lines}}<div class="row"><span>{{.Label}}</span><span>{{.Value}}</span></div>{{end}}
      {{with .Emphasis}}<hr /><div class="row grand"><span>{{.Label}}</span><span>{{.Value}}</span></div>{{end}}
    </div>
    <hr />
    {{else if eq .Kind "footer"}}
    <div class="footer center">
      {{range .Lines}}<div>{{.Value}}</div>{{end}}
    </div>
    {{end}}
    {{end}}
  </div>
</body>
</html>
`

var receiptTemplate = template.Must(template.New("receipt").Parse(receiptHTMLTemplate))

type htmlView struct {
	Doc        *Document
	Title      string
	Width      template.CSS
	PageSize   template.CSS
	PageMargin template.CSS
	Font       template.CSS
	FontSize   template.CSS
}

// RenderHTML renders the document as a standalone page sized for its paper.
func (d *Document) RenderHTML() (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}

	view := htmlView{
		Doc:   d,
		Title: "Receipt",
	}
	if h := d.Block(BlockHeader); h != nil && h.Title != "" {
		view.Title = h.Title
	}

	if d.Layout.FullPage {
		view.Width = "180mm"
		view.PageSize = "A4"
		view.PageMargin = "15mm"
		view.Font = `"Helvetica Neue", Arial, sans-serif`
		view.FontSize = "12pt"
	} else {
		// Leave room for the printer's unprintable margins.
		view.Width = template.CSS(fmt.Sprintf("%dmm", d.Layout.PaperWidthMM-4))
		view.PageSize = template.CSS(fmt.Sprintf("%dmm auto", d.Layout.PaperWidthMM))
		view.PageMargin = "0"
		view.Font = `"Courier New", monospace`
		view.FontSize = "9pt"
		if d.Layout.PaperWidthMM >= 80 {
			view.FontSize = "10pt"
		}
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("markup: render html: %w", err)
	}
	return buf.String(), nil
}
