package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/facturacao/facturacao/internal/platform/httpx"
	"github.com/facturacao/facturacao/internal/shared"
)

// PDFRenderer turns an invoice aggregate into a printable PDF document.
type PDFRenderer interface {
	RenderInvoice(ctx context.Context, inv *Invoice) ([]byte, error)
}

// Handler wires the invoice HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	pdf       PDFRenderer
}

// NewHandler constructs a Handler instance. pdf may be nil when no rendering
// backend is configured.
func NewHandler(logger *slog.Logger, service *Service, pdf PDFRenderer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: newValidator(),
		pdf:       pdf,
	}
}

type listResponse struct {
	Data       []Invoice         `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := ListInvoicesRequest{Search: q.Get("search")}
	if s := q.Get("status"); s != "" {
		status := InvoiceStatus(s)
		req.Status = &status
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	if pp := q.Get("per_page"); pp != "" {
		req.PerPage, _ = strconv.Atoi(pp)
	}

	invs, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if invs == nil {
		invs = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Data:       invs,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	inv, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err), slog.String("invoice_number", req.InvoiceNumber))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Get(r.Context(), chi.URLParam(r, "invoiceNumber"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	invoiceNumber := chi.URLParam(r, "invoiceNumber")

	var req UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	inv, err := h.service.Update(r.Context(), invoiceNumber, req)
	if err != nil {
		h.logger.Error("update invoice", slog.Any("error", err), slog.String("invoice_number", invoiceNumber))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	invoiceNumber := chi.URLParam(r, "invoiceNumber")
	if err := h.service.Delete(r.Context(), invoiceNumber); err != nil {
		h.logger.Error("delete invoice", slog.Any("error", err), slog.String("invoice_number", invoiceNumber))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	invoiceNumber := chi.URLParam(r, "invoiceNumber")

	var req UpdatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	inv, err := h.service.UpdatePaymentStatus(r.Context(), invoiceNumber, req)
	if err != nil {
		h.logger.Error("update payment status", slog.Any("error", err), slog.String("invoice_number", invoiceNumber))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	invoiceNumber := chi.URLParam(r, "invoiceNumber")
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Unavailable", "no rendering backend configured")
		return
	}

	inv, err := h.service.Get(r.Context(), invoiceNumber)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	doc, err := h.pdf.RenderInvoice(r.Context(), inv)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.Any("error", err), slog.String("invoice_number", invoiceNumber))
		httpx.Problem(w, http.StatusBadGateway, "PDF Rendering Failed", "")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoiceNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context(), chi.URLParam(r, "invoiceNumber"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []InvoiceItem{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	invoiceNumber := chi.URLParam(r, "invoiceNumber")

	var req ItemInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.AddItem(r.Context(), invoiceNumber, req)
	if err != nil {
		h.logger.Error("add item", slog.Any("error", err), slog.String("invoice_number", invoiceNumber))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) ShowItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := h.itemID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}

	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "invoiceNumber"), itemID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	invoiceNumber := chi.URLParam(r, "invoiceNumber")
	itemID, err := h.itemID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}

	var req UpdateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	item, err := h.service.UpdateItem(r.Context(), invoiceNumber, itemID, req)
	if err != nil {
		h.logger.Error("update item", slog.Any("error", err), slog.String("invoice_number", invoiceNumber), slog.Int64("item_id", itemID))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	invoiceNumber := chi.URLParam(r, "invoiceNumber")
	itemID, err := h.itemID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}

	if err := h.service.DeleteItem(r.Context(), invoiceNumber, itemID); err != nil {
		h.logger.Error("delete item", slog.Any("error", err), slog.String("invoice_number", invoiceNumber), slog.Int64("item_id", itemID))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BulkReplaceItems(w http.ResponseWriter, r *http.Request) {
	invoiceNumber := chi.URLParam(r, "invoiceNumber")

	var req BulkReplaceItemsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	inv, err := h.service.BulkReplaceItems(r.Context(), invoiceNumber, req)
	if err != nil {
		h.logger.Error("bulk replace items", slog.Any("error", err), slog.String("invoice_number", invoiceNumber))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) itemID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
}
