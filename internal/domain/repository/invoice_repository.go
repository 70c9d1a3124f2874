package repository

import (
	"context"
	"errors"

	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
)

// ErrInvoiceChanged is returned by UpdateTotals when the stored totals no
// longer match the audit's old values because another edit got there first.
var ErrInvoiceChanged = errors.New("invoice changed since it was read")

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByInvoiceNo(ctx context.Context, invoiceNo string) (*entity.Invoice, error)
	// UpdateTotals stores new totals together with the audit row describing
	// the change. Both are written or neither is. The write only applies while
	// the stored discount and grand total still equal the audit's old values;
	// otherwise it returns ErrInvoiceChanged.
	UpdateTotals(ctx context.Context, invoice *entity.Invoice, audit *entity.DiscountAudit) error
	ListDiscountAudits(ctx context.Context, invoiceNo string) ([]entity.DiscountAudit, error)
}

// InvoiceCounterRepository hands out per-day invoice sequences
type InvoiceCounterRepository interface {
	Increment(ctx context.Context, dateKey string) (int64, error)
}
