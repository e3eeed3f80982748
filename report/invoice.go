package report

import (
	"bytes"
	"context"
	"html/template"

	"github.com/facturacao/facturacao/internal/invoices"
)

// InvoiceRenderer builds the printable invoice document and converts it into a
// PDF via Gotenberg.
type InvoiceRenderer struct {
	client *Client
}

// NewInvoiceRenderer wires the renderer to a Gotenberg client.
func NewInvoiceRenderer(client *Client) *InvoiceRenderer {
	return &InvoiceRenderer{client: client}
}

// RenderInvoice produces the PDF bytes for an invoice aggregate.
func (r *InvoiceRenderer) RenderInvoice(ctx context.Context, inv *invoices.Invoice) ([]byte, error) {
	html, err := InvoiceHTML(inv)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html lang="pt">
<head>
<meta charset="utf-8">
<style>
body { font-family: sans-serif; font-size: 12px; margin: 2cm; }
h1 { font-size: 18px; }
table { width: 100%; border-collapse: collapse; margin-top: 1em; }
th, td { border: 1px solid #444; padding: 4px 8px; text-align: left; }
td.num, th.num { text-align: right; }
.totals { margin-top: 1em; width: 40%; margin-left: auto; }
.totals td { border: none; }
</style>
</head>
<body>
<h1>{{.Type}} {{.InvoiceNumber}}</h1>
<p>
Cliente: {{.ClientName}}<br>
{{with .ClientAddress}}Endereço: {{.}}<br>{{end}}
{{with .ClientNUIT}}NUIT: {{.}}<br>{{end}}
Data da operação: {{.OperationDate.Format "2006-01-02"}}<br>
Estado: {{.Status}}
</p>
<table>
<tr><th>Descrição</th><th class="num">Preço</th><th class="num">Qtd</th><th class="num">Desc. %</th><th class="num">Total</th></tr>
{{range .Items}}
<tr>
<td>{{.Name}}</td>
<td class="num">{{.Price.StringFixed 2}}</td>
<td class="num">{{.Quantity}}</td>
<td class="num">{{.DiscountPercent}}</td>
<td class="num">{{.Total.StringFixed 2}}</td>
</tr>
{{end}}
</table>
<table class="totals">
<tr><td>Subtotal</td><td class="num">{{.SubtotalAmount.StringFixed 2}}</td></tr>
<tr><td>Desconto</td><td class="num">{{.DiscountAmount.StringFixed 2}}</td></tr>
<tr><td>Transporte</td><td class="num">{{.TransshipmentAmount.StringFixed 2}}</td></tr>
<tr><td>Impostos</td><td class="num">{{.TaxesAmount.StringFixed 2}}</td></tr>
<tr><td><strong>Total</strong></td><td class="num"><strong>{{.TotalAmount.StringFixed 2}}</strong></td></tr>
<tr><td>Pago</td><td class="num">{{.PaidAmount.StringFixed 2}}</td></tr>
<tr><td>Pendente</td><td class="num">{{.PendingAmount.StringFixed 2}}</td></tr>
</table>
</body>
</html>`))

// InvoiceHTML renders the invoice document markup.
func InvoiceHTML(inv *invoices.Invoice) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, inv); err != nil {
		return "", err
	}
	return buf.String(), nil
}
