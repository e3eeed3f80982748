package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemInput is the caller-supplied shape of a line item. The item total is
// never accepted from the caller; it is derived.
type ItemInput struct {
	Name            string          `json:"name" validate:"required,max=255"`
	Description     *string         `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity        int             `json:"quantity" validate:"required,gte=1"`
	DiscountPercent int             `json:"discount" validate:"gte=0,lte=100"`
}

// CreateInvoiceRequest creates an invoice together with its initial item set.
type CreateInvoiceRequest struct {
	ClientName          string           `json:"client_name" validate:"required,max=255"`
	ClientAddress       *string          `json:"client_address,omitempty"`
	ClientPhoneNumber   *string          `json:"client_phone_number,omitempty" validate:"omitempty,max=20"`
	ClientNUIT          *string          `json:"client_nuit,omitempty" validate:"omitempty,max=20"`
	InvoiceNumber       string           `json:"invoice_number" validate:"required,max=255"`
	Type                *InvoiceType     `json:"invoice_type,omitempty"`
	DiscountAmount      *decimal.Decimal `json:"invoice_discount_amount,omitempty" validate:"omitempty,gte=0"`
	TransshipmentAmount *decimal.Decimal `json:"invoice_transshipment_amount,omitempty" validate:"omitempty,gte=0"`
	TaxesAmount         *decimal.Decimal `json:"invoice_taxes_amount,omitempty" validate:"omitempty,gte=0"`
	OperationDate       time.Time        `json:"invoice_operation_date" validate:"required"`
	PaymentDate         *time.Time       `json:"invoice_payment_date,omitempty"`
	Notes               *string          `json:"invoice_notes,omitempty"`
	SystemUser          *string          `json:"system_user,omitempty" validate:"omitempty,max=255"`
	SystemAttendant     *string          `json:"system_attendant,omitempty" validate:"omitempty,max=255"`
	Items               []ItemInput      `json:"items" validate:"required,min=1,dive"`
}

// UpdateInvoiceRequest patches an invoice. Nil fields are left untouched.
// InvoiceNumber itself is immutable and cannot be patched. Supplying Items
// replaces the full item set and triggers a totals recompute; supplying
// PaidAmount re-evaluates pending and status. When both are present the items
// are applied first and the paid amount is judged against the new total.
type UpdateInvoiceRequest struct {
	ClientName          *string          `json:"client_name,omitempty" validate:"omitempty,max=255"`
	ClientAddress       *string          `json:"client_address,omitempty"`
	ClientPhoneNumber   *string          `json:"client_phone_number,omitempty" validate:"omitempty,max=20"`
	ClientNUIT          *string          `json:"client_nuit,omitempty" validate:"omitempty,max=20"`
	Type                *InvoiceType     `json:"invoice_type,omitempty"`
	Status              *InvoiceStatus   `json:"invoice_status,omitempty"`
	PaidAmount          *decimal.Decimal `json:"invoice_paid_amount,omitempty" validate:"omitempty,gte=0"`
	DiscountAmount      *decimal.Decimal `json:"invoice_discount_amount,omitempty" validate:"omitempty,gte=0"`
	TransshipmentAmount *decimal.Decimal `json:"invoice_transshipment_amount,omitempty" validate:"omitempty,gte=0"`
	TaxesAmount         *decimal.Decimal `json:"invoice_taxes_amount,omitempty" validate:"omitempty,gte=0"`
	OperationDate       *time.Time       `json:"invoice_operation_date,omitempty"`
	PaymentDate         *time.Time       `json:"invoice_payment_date,omitempty"`
	Notes               *string          `json:"invoice_notes,omitempty"`
	SystemUser          *string          `json:"system_user,omitempty" validate:"omitempty,max=255"`
	SystemAttendant     *string          `json:"system_attendant,omitempty" validate:"omitempty,max=255"`
	Items               *[]ItemInput     `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// UpdateItemRequest patches a single line item. Nil fields keep their stored
// value; the item total is always re-derived from the merged source fields.
type UpdateItemRequest struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description     *string          `json:"description,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
	Quantity        *int             `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	DiscountPercent *int             `json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// BulkReplaceItemsRequest swaps the full item set of an invoice.
type BulkReplaceItemsRequest struct {
	Items []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// UpdatePaymentRequest records a payment against an invoice without touching
// its item set.
type UpdatePaymentRequest struct {
	PaidAmount  decimal.Decimal `json:"paid_amount" validate:"gte=0"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

// ListInvoicesRequest filters and paginates invoice listings.
type ListInvoicesRequest struct {
	Search  string         `json:"search,omitempty"`
	Status  *InvoiceStatus `json:"status,omitempty"`
	Page    int            `json:"page" validate:"gte=0"`
	PerPage int            `json:"per_page" validate:"gte=0,lte=100"`
}
