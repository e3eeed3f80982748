package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/facturacao/facturacao/internal/invoices"
)

func sampleInvoice() *invoices.Invoice {
	nuit := "400123456"
	return &invoices.Invoice{
		InvoiceNumber:  "FT-2026-001",
		ClientName:     "Mário Machava",
		ClientNUIT:     &nuit,
		Type:           invoices.TypeFactura,
		Status:         invoices.StatusPendente,
		SubtotalAmount: decimal.RequireFromString("230"),
		TotalAmount:    decimal.RequireFromString("230"),
		PendingAmount:  decimal.RequireFromString("230"),
		OperationDate:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Items: []invoices.InvoiceItem{
			{Name: "Cimento", Price: decimal.RequireFromString("100"), Quantity: 2, DiscountPercent: 10, Total: decimal.RequireFromString("180")},
			{Name: "Areia", Price: decimal.RequireFromString("50"), Quantity: 1, Total: decimal.RequireFromString("50")},
		},
	}
}

func TestInvoiceHTML(t *testing.T) {
	html, err := InvoiceHTML(sampleInvoice())
	require.NoError(t, err)

	require.Contains(t, html, "Factura FT-2026-001")
	require.Contains(t, html, "Mário Machava")
	require.Contains(t, html, "NUIT: 400123456")
	require.Contains(t, html, "Cimento")
	require.Contains(t, html, "230.00")
	require.Contains(t, html, "2026-03-15")
}

func TestInvoiceRendererPostsToGotenberg(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		_, _, err := r.FormFile("files")
		require.NoError(t, err)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	renderer := NewInvoiceRenderer(NewClient(srv.URL))
	pdf, err := renderer.RenderInvoice(context.Background(), sampleInvoice())
	require.NoError(t, err)
	require.Equal(t, "/forms/chromium/convert/html", gotPath)
	require.Equal(t, []byte("%PDF-1.7"), pdf)
}

func TestClientPingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	require.Error(t, NewClient(srv.URL).Ping(context.Background()))
}
