package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/restaurant-pos-api/internal/domain/billing"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/sangkips/restaurant-pos-api/internal/domain/repository"
	"github.com/sangkips/restaurant-pos-api/pkg/apperror"
	"github.com/sangkips/restaurant-pos-api/pkg/invoiceno"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService finalizes orders into numbered invoices
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	allocator   *invoiceno.Allocator
	settingsSvc *SettingsService
	now         func() time.Time
	log         *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	allocator *invoiceno.Allocator,
	settingsSvc *SettingsService,
	log *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		allocator:   allocator,
		settingsSvc: settingsSvc,
		now:         time.Now,
		log:         log,
	}
}

// InvoiceItemInput represents an item in an order
type InvoiceItemInput struct {
	Name           string
	UnitPrice      decimal.Decimal
	TaxRatePercent decimal.Decimal
	Quantity       int
}

// QuoteInput is a cart to price without issuing an invoice
type QuoteInput struct {
	Items          []InvoiceItemInput
	Discount       decimal.Decimal
	DeliveryCharge decimal.Decimal
}

// FinalizeInvoiceInput represents the finalize invoice input
type FinalizeInvoiceInput struct {
	Items          []InvoiceItemInput
	Discount       decimal.Decimal
	DeliveryCharge decimal.Decimal
	Customer       entity.Customer
	PaymentMethod  string
}

// EditDiscountInput changes the discount of an issued invoice
type EditDiscountInput struct {
	InvoiceNo string
	Discount  decimal.Decimal
	EditedBy  string
	Reason    string
}

// Quote prices a cart under the current tax regime. A discount larger than
// the bill is reported through DiscountClamped rather than rejected.
func (s *InvoiceService) Quote(ctx context.Context, input *QuoteInput) (entity.OrderTotals, error) {
	regime, err := s.regime(ctx)
	if err != nil {
		return entity.OrderTotals{}, err
	}
	return billing.ComputeTotals(lineItems(input.Items), regime, input.Discount, input.DeliveryCharge)
}

// Finalize validates the cart, allocates an invoice number and stores the
// invoice with its item snapshot. No invoice is stored without a number.
func (s *InvoiceService) Finalize(ctx context.Context, input *FinalizeInvoiceInput) (*entity.Invoice, error) {
	if len(input.Items) == 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "items", Message: "at least one item is required"}})
	}
	// The item snapshot must store exactly what was priced, or a later
	// discount edit would recompute different totals.
	var fieldErrs []apperror.FieldError
	maxRate := decimal.NewFromInt(billing.MaxTaxRate)
	for i, it := range input.Items {
		if !it.UnitPrice.Equal(it.UnitPrice.Truncate(billing.DisplayPlaces)) {
			fieldErrs = append(fieldErrs, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].unit_price", i),
				Message: "at most two decimal places",
			})
		}
		switch {
		case !it.TaxRatePercent.Equal(it.TaxRatePercent.Truncate(billing.TaxRatePlaces)):
			fieldErrs = append(fieldErrs, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].tax_rate", i),
				Message: "at most three decimal places",
			})
		case it.TaxRatePercent.GreaterThan(maxRate):
			fieldErrs = append(fieldErrs, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].tax_rate", i),
				Message: fmt.Sprintf("cannot exceed %d percent", billing.MaxTaxRate),
			})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, apperror.NewValidationError(fieldErrs)
	}
	regime, err := s.regime(ctx)
	if err != nil {
		return nil, err
	}

	items := lineItems(input.Items)
	totals, err := billing.ComputeTotals(items, regime, input.Discount, input.DeliveryCharge)
	if err != nil {
		return nil, err
	}
	if err := billing.ValidateDiscount(totals); err != nil {
		return nil, err
	}

	issuedAt := s.now()
	number, err := s.allocator.Next(ctx, issuedAt)
	if err != nil {
		s.log.Error("invoice number allocation failed", zap.Error(err))
		return nil, apperror.NewAllocationError(err)
	}

	invoice := &entity.Invoice{
		InvoiceNo:     number,
		IssuedAt:      issuedAt,
		TaxRegime:     regime,
		Customer:      trimCustomer(input.Customer),
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		Items:         entity.NewInvoiceItems(items),
	}
	invoice.SetTotals(totals)

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		// The number is spent; the day's sequence will show a gap.
		s.log.Error("failed to store invoice", zap.String("invoice_no", number), zap.Error(err))
		return nil, fmt.Errorf("create invoice %s: %w", number, err)
	}

	s.log.Info("invoice finalized",
		zap.String("invoice_no", number),
		zap.String("grand_total", billing.Format(totals.GrandTotal)),
		zap.Int("items", len(items)),
	)
	return invoice, nil
}

// Get returns an invoice by number
func (s *InvoiceService) Get(ctx context.Context, invoiceNo string) (*entity.Invoice, error) {
	if _, _, err := invoiceno.Parse(invoiceNo); err != nil {
		return nil, apperror.NewBadRequestError("Invalid invoice number format")
	}
	invoice, err := s.invoiceRepo.GetByInvoiceNo(ctx, invoiceNo)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// EditDiscount replaces the discount of an issued invoice. Every total is
// recomputed from the stored item snapshot and the change is audited.
func (s *InvoiceService) EditDiscount(ctx context.Context, input *EditDiscountInput) (*entity.Invoice, error) {
	invoice, err := s.Get(ctx, input.InvoiceNo)
	if err != nil {
		return nil, err
	}

	old := invoice.Totals()
	totals, err := billing.ComputeTotals(invoice.LineItems(), invoice.TaxRegime, input.Discount, invoice.DeliveryCharge)
	if err != nil {
		return nil, err
	}
	if err := billing.ValidateDiscount(totals); err != nil {
		return nil, err
	}

	audit := &entity.DiscountAudit{
		InvoiceID:     invoice.ID,
		OldDiscount:   old.Discount,
		NewDiscount:   totals.Discount,
		OldGrandTotal: old.GrandTotal,
		NewGrandTotal: totals.GrandTotal,
		EditedBy:      input.EditedBy,
		Reason:        strings.TrimSpace(input.Reason),
	}
	invoice.SetTotals(totals)
	if err := s.invoiceRepo.UpdateTotals(ctx, invoice, audit); err != nil {
		if errors.Is(err, repository.ErrInvoiceChanged) {
			return nil, apperror.NewConflictError("Invoice was changed by another edit; reload it and try again")
		}
		return nil, fmt.Errorf("update invoice %s: %w", invoice.InvoiceNo, err)
	}

	s.log.Info("invoice discount edited",
		zap.String("invoice_no", invoice.InvoiceNo),
		zap.String("old_discount", billing.Format(old.Discount)),
		zap.String("new_discount", billing.Format(totals.Discount)),
		zap.String("edited_by", input.EditedBy),
	)
	return invoice, nil
}

// ListDiscountAudits returns the discount history of an invoice, oldest first.
func (s *InvoiceService) ListDiscountAudits(ctx context.Context, invoiceNo string) ([]entity.DiscountAudit, error) {
	if _, err := s.Get(ctx, invoiceNo); err != nil {
		return nil, err
	}
	return s.invoiceRepo.ListDiscountAudits(ctx, invoiceNo)
}

func (s *InvoiceService) regime(ctx context.Context) (enum.TaxRegime, error) {
	settings, err := s.settingsSvc.Load(ctx)
	if err != nil {
		return 0, err
	}
	return settings.GSTType, nil
}

func lineItems(in []InvoiceItemInput) []entity.LineItem {
	items := make([]entity.LineItem, len(in))
	for i, it := range in {
		items[i] = entity.LineItem{
			Item: entity.MenuItemRef{
				Name:           strings.TrimSpace(it.Name),
				UnitPrice:      it.UnitPrice,
				TaxRatePercent: it.TaxRatePercent,
			},
			Quantity: it.Quantity,
		}
	}
	return items
}

func trimCustomer(c entity.Customer) entity.Customer {
	return entity.Customer{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}
