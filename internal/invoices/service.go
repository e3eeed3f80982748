package invoices

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/facturacao/facturacao/internal/platform/httpx"
)

// Service coordinates invoice and item writes so the derived totals always
// reflect the stored item set. Every operation that touches both the header
// and the items runs inside one repository transaction with the header row
// locked for update.
type Service struct {
	repo  Repository
	cache *AggregateCache
}

// NewService builds the invoice Service. cache may be nil.
func NewService(repo Repository, cache *AggregateCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create persists a new invoice with its initial item set atomically. The
// status is forced to Pendente and the paid amount to zero regardless of the
// computed totals.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("invoice requires at least one item: %w", httpx.ErrValidation)
	}

	discount := amountOrZero(req.DiscountAmount)
	transshipment := amountOrZero(req.TransshipmentAmount)
	taxes := amountOrZero(req.TaxesAmount)

	totals := ComputeTotals(itemInputsToLines(req.Items), discount, transshipment, taxes, decimal.Zero)

	invType := TypeFactura
	if req.Type != nil {
		invType = *req.Type
	}

	inv := Invoice{
		InvoiceNumber:       req.InvoiceNumber,
		ClientName:          req.ClientName,
		ClientAddress:       req.ClientAddress,
		ClientPhoneNumber:   req.ClientPhoneNumber,
		ClientNUIT:          req.ClientNUIT,
		Type:                invType,
		Status:              StatusPendente,
		PaidAmount:          decimal.Zero,
		PendingAmount:       totals.Total,
		DiscountAmount:      discount,
		TransshipmentAmount: transshipment,
		TaxesAmount:         taxes,
		SubtotalAmount:      totals.Subtotal,
		TotalAmount:         totals.Total,
		OperationDate:       req.OperationDate,
		PaymentDate:         req.PaymentDate,
		Notes:               req.Notes,
		SystemUser:          req.SystemUser,
		SystemAttendant:     req.SystemAttendant,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.CreateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		for _, in := range req.Items {
			if _, err := repo.InsertItem(ctx, itemFromInput(req.InvoiceNumber, in)); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadAggregate(ctx, s.repo, req.InvoiceNumber)
}

// Update patches invoice fields. A supplied item set replaces the stored one
// and triggers a full recompute; a supplied paid amount is then evaluated
// against the resulting total. The invoice number itself is immutable.
func (s *Service) Update(ctx context.Context, invoiceNumber string, req UpdateInvoiceRequest) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetInvoiceForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		applyHeaderPatch(updates, req)

		switch {
		case req.Items != nil:
			if err := repo.DeleteItems(ctx, invoiceNumber); err != nil {
				return fmt.Errorf("replace items: %w", err)
			}
			for _, in := range *req.Items {
				if _, err := repo.InsertItem(ctx, itemFromInput(invoiceNumber, in)); err != nil {
					return fmt.Errorf("replace items: %w", err)
				}
			}

			discount := amountOr(req.DiscountAmount, inv.DiscountAmount)
			transshipment := amountOr(req.TransshipmentAmount, inv.TransshipmentAmount)
			taxes := amountOr(req.TaxesAmount, inv.TaxesAmount)
			paid := amountOr(req.PaidAmount, inv.PaidAmount)

			totals := ComputeTotals(itemInputsToLines(*req.Items), discount, transshipment, taxes, paid)
			updates["invoice_discount_amount"] = discount
			updates["invoice_transshipment_amount"] = transshipment
			updates["invoice_taxes_amount"] = taxes
			updates["invoice_paid_amount"] = paid
			applyDerived(updates, totals)

		case req.PaidAmount != nil || req.DiscountAmount != nil || req.TransshipmentAmount != nil || req.TaxesAmount != nil:
			items, err := repo.ListItems(ctx, invoiceNumber)
			if err != nil {
				return err
			}

			discount := amountOr(req.DiscountAmount, inv.DiscountAmount)
			transshipment := amountOr(req.TransshipmentAmount, inv.TransshipmentAmount)
			taxes := amountOr(req.TaxesAmount, inv.TaxesAmount)
			paid := amountOr(req.PaidAmount, inv.PaidAmount)

			totals := ComputeTotals(lineInputs(items), discount, transshipment, taxes, paid)
			updates["invoice_discount_amount"] = discount
			updates["invoice_transshipment_amount"] = transshipment
			updates["invoice_taxes_amount"] = taxes
			updates["invoice_paid_amount"] = paid
			applyDerived(updates, totals)
		}

		return repo.UpdateInvoice(ctx, invoiceNumber, updates)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, invoiceNumber)
	return s.loadAggregate(ctx, s.repo, invoiceNumber)
}

// Delete removes the invoice and all of its items as one atomic unit.
func (s *Service) Delete(ctx context.Context, invoiceNumber string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetInvoiceForUpdate(ctx, invoiceNumber); err != nil {
			return err
		}
		if err := repo.DeleteItems(ctx, invoiceNumber); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		return repo.DeleteInvoice(ctx, invoiceNumber)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, invoiceNumber)
	return nil
}

// Get returns the invoice aggregate, served from cache when available.
func (s *Service) Get(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	if s.cache == nil {
		return s.loadAggregate(ctx, s.repo, invoiceNumber)
	}
	return s.cache.Fetch(ctx, invoiceNumber, func(ctx context.Context) (*Invoice, error) {
		return s.loadAggregate(ctx, s.repo, invoiceNumber)
	})
}

// List returns a page of invoice aggregates matching the filter.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	invs, total, err := s.repo.ListInvoices(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	for i := range invs {
		items, err := s.repo.ListItems(ctx, invs[i].InvoiceNumber)
		if err != nil {
			return nil, 0, err
		}
		invs[i].Items = items
	}
	return invs, total, nil
}

// AddItem appends one item to the invoice and recomputes the derived fields in
// the same transaction.
func (s *Service) AddItem(ctx context.Context, invoiceNumber string, in ItemInput) (*InvoiceItem, error) {
	var created *InvoiceItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetInvoiceForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}

		item := itemFromInput(invoiceNumber, in)
		id, err := repo.InsertItem(ctx, item)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		item.ID = id
		created = &item

		return s.recomputeLocked(ctx, repo, inv)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, invoiceNumber)
	return created, nil
}

// GetItem returns one item scoped to its owning invoice.
func (s *Service) GetItem(ctx context.Context, invoiceNumber string, itemID int64) (*InvoiceItem, error) {
	return s.repo.GetItem(ctx, invoiceNumber, itemID)
}

// ListItems returns all items of the invoice.
func (s *Service) ListItems(ctx context.Context, invoiceNumber string) ([]InvoiceItem, error) {
	if _, err := s.repo.GetInvoice(ctx, invoiceNumber); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, invoiceNumber)
}

// UpdateItem patches an item and recomputes the invoice totals atomically.
func (s *Service) UpdateItem(ctx context.Context, invoiceNumber string, itemID int64, req UpdateItemRequest) (*InvoiceItem, error) {
	var updated *InvoiceItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetInvoiceForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}

		item, err := repo.GetItem(ctx, invoiceNumber, itemID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			item.Name = *req.Name
		}
		if req.Description != nil {
			item.Description = req.Description
		}
		if req.Price != nil {
			item.Price = *req.Price
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.DiscountPercent != nil {
			item.DiscountPercent = *req.DiscountPercent
		}
		item.Total = ItemTotal(item.Price, item.Quantity, item.DiscountPercent)

		if err := repo.UpdateItem(ctx, *item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		updated = item

		return s.recomputeLocked(ctx, repo, inv)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, invoiceNumber)
	return updated, nil
}

// DeleteItem removes one item and recomputes the invoice totals atomically.
func (s *Service) DeleteItem(ctx context.Context, invoiceNumber string, itemID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetInvoiceForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, invoiceNumber, itemID); err != nil {
			return err
		}
		return s.recomputeLocked(ctx, repo, inv)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, invoiceNumber)
	return nil
}

// BulkReplaceItems swaps the whole item set and recomputes, all in one
// transaction. On any failure the previous item set and totals survive intact.
func (s *Service) BulkReplaceItems(ctx context.Context, invoiceNumber string, req BulkReplaceItemsRequest) (*Invoice, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("bulk replace requires at least one item: %w", httpx.ErrValidation)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetInvoiceForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}
		if err := repo.DeleteItems(ctx, invoiceNumber); err != nil {
			return fmt.Errorf("replace items: %w", err)
		}
		for _, in := range req.Items {
			if _, err := repo.InsertItem(ctx, itemFromInput(invoiceNumber, in)); err != nil {
				return fmt.Errorf("replace items: %w", err)
			}
		}
		return s.recomputeLocked(ctx, repo, inv)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, invoiceNumber)
	return s.loadAggregate(ctx, s.repo, invoiceNumber)
}

// UpdatePaymentStatus re-evaluates pending amount and status against the
// stored total. It never recomputes subtotal or total and never touches items.
func (s *Service) UpdatePaymentStatus(ctx context.Context, invoiceNumber string, req UpdatePaymentRequest) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.GetInvoiceForUpdate(ctx, invoiceNumber)
		if err != nil {
			return err
		}

		pending := inv.TotalAmount.Sub(req.PaidAmount).Round(moneyPlaces)
		updates := map[string]interface{}{
			"invoice_paid_amount":    req.PaidAmount,
			"invoice_pending_amount": pending,
			"invoice_status":         StatusFor(req.PaidAmount, inv.TotalAmount),
		}
		if req.PaymentDate != nil {
			updates["invoice_payment_date"] = *req.PaymentDate
		}
		if req.Notes != nil {
			updates["invoice_notes"] = *req.Notes
		}

		return repo.UpdateInvoice(ctx, invoiceNumber, updates)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, invoiceNumber)
	return s.loadAggregate(ctx, s.repo, invoiceNumber)
}

// recomputeLocked derives the invoice fields from the now-current item set and
// writes them in a single update. The caller must hold the header row lock.
func (s *Service) recomputeLocked(ctx context.Context, repo Repository, inv *Invoice) error {
	items, err := repo.ListItems(ctx, inv.InvoiceNumber)
	if err != nil {
		return err
	}

	totals := RecomputeTotals(*inv, items)
	updates := make(map[string]interface{})
	applyDerived(updates, totals)
	return repo.UpdateInvoice(ctx, inv.InvoiceNumber, updates)
}

func (s *Service) loadAggregate(ctx context.Context, repo Repository, invoiceNumber string) (*Invoice, error) {
	inv, err := repo.GetInvoice(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	items, err := repo.ListItems(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func (s *Service) invalidate(ctx context.Context, invoiceNumber string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, invoiceNumber)
	}
}

func applyHeaderPatch(updates map[string]interface{}, req UpdateInvoiceRequest) {
	if req.ClientName != nil {
		updates["client_name"] = *req.ClientName
	}
	if req.ClientAddress != nil {
		updates["client_address"] = *req.ClientAddress
	}
	if req.ClientPhoneNumber != nil {
		updates["client_phone_number"] = *req.ClientPhoneNumber
	}
	if req.ClientNUIT != nil {
		updates["client_nuit"] = *req.ClientNUIT
	}
	if req.Type != nil {
		updates["invoice_type"] = *req.Type
	}
	if req.Status != nil {
		updates["invoice_status"] = *req.Status
	}
	if req.OperationDate != nil {
		updates["invoice_operation_date"] = *req.OperationDate
	}
	if req.PaymentDate != nil {
		updates["invoice_payment_date"] = *req.PaymentDate
	}
	if req.Notes != nil {
		updates["invoice_notes"] = *req.Notes
	}
	if req.SystemUser != nil {
		updates["system_user"] = *req.SystemUser
	}
	if req.SystemAttendant != nil {
		updates["system_attendant"] = *req.SystemAttendant
	}
}

// applyDerived writes all four derived fields together; they are never
// persisted individually.
func applyDerived(updates map[string]interface{}, t Totals) {
	updates["invoice_subtotal_amount"] = t.Subtotal
	updates["invoice_total_amount"] = t.Total
	updates["invoice_pending_amount"] = t.Pending
	updates["invoice_status"] = t.Status
}

func itemFromInput(invoiceNumber string, in ItemInput) InvoiceItem {
	return InvoiceItem{
		InvoiceNumber:   invoiceNumber,
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		Quantity:        in.Quantity,
		DiscountPercent: in.DiscountPercent,
		Total:           ItemTotal(in.Price, in.Quantity, in.DiscountPercent),
	}
}

func itemInputsToLines(items []ItemInput) []LineInput {
	lines := make([]LineInput, 0, len(items))
	for _, in := range items {
		lines = append(lines, LineInput{
			Price:           in.Price,
			Quantity:        in.Quantity,
			DiscountPercent: in.DiscountPercent,
		})
	}
	return lines
}

func amountOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func amountOr(d *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if d == nil {
		return fallback
	}
	return *d
}
