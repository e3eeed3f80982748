package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates invoice payment statuses.
type InvoiceStatus string

const (
	StatusPendente  InvoiceStatus = "Pendente"
	StatusParcial   InvoiceStatus = "Parcial"
	StatusPago      InvoiceStatus = "Pago"
	StatusCancelado InvoiceStatus = "Cancelado"
)

// InvoiceType enumerates document types.
type InvoiceType string

const (
	TypeFactura   InvoiceType = "Factura"
	TypeProforma  InvoiceType = "Proforma"
	TypeOrcamento InvoiceType = "Orçamento"
)

// Invoice is the aggregate header. InvoiceNumber is the business key; items
// reference it, not the internal id. Subtotal, Total, Pending and Status are
// derived and only ever written together by the service.
type Invoice struct {
	ID                  int64           `json:"id" db:"id"`
	InvoiceNumber       string          `json:"invoice_number" db:"invoice_number"`
	ClientName          string          `json:"client_name" db:"client_name"`
	ClientAddress       *string         `json:"client_address,omitempty" db:"client_address"`
	ClientPhoneNumber   *string         `json:"client_phone_number,omitempty" db:"client_phone_number"`
	ClientNUIT          *string         `json:"client_nuit,omitempty" db:"client_nuit"`
	Type                InvoiceType     `json:"invoice_type" db:"invoice_type"`
	Status              InvoiceStatus   `json:"invoice_status" db:"invoice_status"`
	PaidAmount          decimal.Decimal `json:"invoice_paid_amount" db:"invoice_paid_amount"`
	PendingAmount       decimal.Decimal `json:"invoice_pending_amount" db:"invoice_pending_amount"`
	DiscountAmount      decimal.Decimal `json:"invoice_discount_amount" db:"invoice_discount_amount"`
	TransshipmentAmount decimal.Decimal `json:"invoice_transshipment_amount" db:"invoice_transshipment_amount"`
	TaxesAmount         decimal.Decimal `json:"invoice_taxes_amount" db:"invoice_taxes_amount"`
	SubtotalAmount      decimal.Decimal `json:"invoice_subtotal_amount" db:"invoice_subtotal_amount"`
	TotalAmount         decimal.Decimal `json:"invoice_total_amount" db:"invoice_total_amount"`
	OperationDate       time.Time       `json:"invoice_operation_date" db:"invoice_operation_date"`
	PaymentDate         *time.Time      `json:"invoice_payment_date,omitempty" db:"invoice_payment_date"`
	Notes               *string         `json:"invoice_notes,omitempty" db:"invoice_notes"`
	SystemUser          *string         `json:"system_user,omitempty" db:"system_user"`
	SystemAttendant     *string         `json:"system_attendant,omitempty" db:"system_attendant"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
	Items               []InvoiceItem   `json:"items,omitempty" db:"-"`
}

// InvoiceItem is a line item owned by exactly one invoice. Total is derived
// from price, quantity and discount and recomputed from those source fields on
// every write.
type InvoiceItem struct {
	ID              int64           `json:"id" db:"id"`
	InvoiceNumber   string          `json:"invoice_number" db:"invoice_number"`
	Name            string          `json:"name" db:"name"`
	Description     *string         `json:"description,omitempty" db:"description"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Quantity        int             `json:"quantity" db:"quantity"`
	DiscountPercent int             `json:"discount_percent" db:"discount_percent"`
	Total           decimal.Decimal `json:"total" db:"total"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
