package invoices

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func testHandler(t *testing.T) (*chi.Mux, *Service) {
	t.Helper()
	return testHandlerWithPDF(t, nil)
}

func testHandlerWithPDF(t *testing.T, pdf PDFRenderer) (*chi.Mux, *Service) {
	t.Helper()
	svc := NewService(newMockRepo(), nil)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, pdf)

	r := chi.NewRouter()
	r.Route("/api/invoices", h.MountRoutes)
	return r, svc
}

type stubRenderer struct{}

func (stubRenderer) RenderInvoice(_ context.Context, inv *Invoice) ([]byte, error) {
	return []byte("%PDF " + inv.InvoiceNumber), nil
}

func doJSON(t *testing.T, r http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeInvoice(t *testing.T, rec *httptest.ResponseRecorder) Invoice {
	t.Helper()
	var inv Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	return inv
}

func createPayload(number string) map[string]interface{} {
	return map[string]interface{}{
		"client_name":            "Mário Machava",
		"invoice_number":         number,
		"invoice_operation_date": time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		"items": []map[string]interface{}{
			{"name": "Cimento", "price": "100", "quantity": 2, "discount": 10},
			{"name": "Areia", "price": "50", "quantity": 1},
		},
	}
}

func TestHandlerCreateInvoice(t *testing.T) {
	r, _ := testHandler(t)

	rec := doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-001"))
	require.Equal(t, http.StatusCreated, rec.Code)

	inv := decodeInvoice(t, rec)
	require.Equal(t, "FT-2026-001", inv.InvoiceNumber)
	require.Equal(t, StatusPendente, inv.Status)
	require.True(t, inv.TotalAmount.Equal(dec("230")))
	require.Len(t, inv.Items, 2)
}

func TestHandlerCreateMalformedBody(t *testing.T) {
	r, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/invoices/", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHandlerCreateValidationFailure(t *testing.T) {
	r, _ := testHandler(t)

	payload := createPayload("FT-2026-002")
	delete(payload, "client_name")

	rec := doJSON(t, r, http.MethodPost, "/api/invoices/", payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlerCreateDuplicate(t *testing.T) {
	r, _ := testHandler(t)

	rec := doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-003"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-003"))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerShowInvoice(t *testing.T) {
	r, _ := testHandler(t)
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-010"))

	rec := doJSON(t, r, http.MethodGet, "/api/invoices/FT-2026-010", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "FT-2026-010", decodeInvoice(t, rec).InvoiceNumber)
}

func TestHandlerShowNotFound(t *testing.T) {
	r, _ := testHandler(t)

	rec := doJSON(t, r, http.MethodGet, "/api/invoices/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHandlerListInvoices(t *testing.T) {
	r, _ := testHandler(t)
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-020"))
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-021"))

	rec := doJSON(t, r, http.MethodGet, "/api/invoices/?per_page=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data       []Invoice `json:"data"`
		Pagination struct {
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	require.Equal(t, 2, out.Pagination.Total)
	require.Equal(t, 2, out.Pagination.TotalPages)
}

func TestHandlerUpdateInvoice(t *testing.T) {
	r, _ := testHandler(t)
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-030"))

	rec := doJSON(t, r, http.MethodPut, "/api/invoices/FT-2026-030", map[string]interface{}{
		"client_name": "Alzira Cossa",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Alzira Cossa", decodeInvoice(t, rec).ClientName)
}

func TestHandlerUpdatePayment(t *testing.T) {
	r, _ := testHandler(t)
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-031"))

	rec := doJSON(t, r, http.MethodPatch, "/api/invoices/FT-2026-031/payment", map[string]interface{}{
		"paid_amount": "100",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	inv := decodeInvoice(t, rec)
	require.Equal(t, StatusParcial, inv.Status)
	require.True(t, inv.PendingAmount.Equal(dec("130")))
}

func TestHandlerDeleteInvoice(t *testing.T) {
	r, _ := testHandler(t)
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-040"))

	rec := doJSON(t, r, http.MethodDelete, "/api/invoices/FT-2026-040", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/invoices/FT-2026-040", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerItemLifecycle(t *testing.T) {
	r, svc := testHandler(t)
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-050"))

	rec := doJSON(t, r, http.MethodPost, "/api/invoices/FT-2026-050/items/", map[string]interface{}{
		"name": "Prego", "price": "5", "quantity": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var item InvoiceItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.True(t, item.Total.Equal(dec("50")))

	rec = doJSON(t, r, http.MethodGet, "/api/invoices/FT-2026-050/items/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []InvoiceItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 3)

	rec = doJSON(t, r, http.MethodDelete, "/api/invoices/FT-2026-050/items/99999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/invoices/FT-2026-050/items/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	inv, err := svc.Get(context.Background(), "FT-2026-050")
	require.NoError(t, err)
	require.True(t, inv.TotalAmount.Equal(dec("280")))
}

func TestHandlerDownloadPDF(t *testing.T) {
	r, _ := testHandlerWithPDF(t, stubRenderer{})
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-055"))

	rec := doJSON(t, r, http.MethodGet, "/api/invoices/FT-2026-055/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Equal(t, "%PDF FT-2026-055", rec.Body.String())
}

func TestHandlerDownloadPDFUnconfigured(t *testing.T) {
	r, _ := testHandler(t)
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-056"))

	rec := doJSON(t, r, http.MethodGet, "/api/invoices/FT-2026-056/pdf", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerBulkReplaceItems(t *testing.T) {
	r, _ := testHandler(t)
	doJSON(t, r, http.MethodPost, "/api/invoices/", createPayload("FT-2026-060"))

	rec := doJSON(t, r, http.MethodPatch, "/api/invoices/FT-2026-060/items/bulk", map[string]interface{}{
		"items": []map[string]interface{}{
			{"name": "Chapa", "price": "75", "quantity": 4},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	inv := decodeInvoice(t, rec)
	require.Len(t, inv.Items, 1)
	require.True(t, inv.TotalAmount.Equal(dec("300")))

	rec = doJSON(t, r, http.MethodPatch, "/api/invoices/FT-2026-060/items/bulk", map[string]interface{}{
		"items": []map[string]interface{}{},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
