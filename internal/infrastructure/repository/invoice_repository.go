package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/restaurant-pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(invoice).Error; err != nil {
			return err
		}
		if len(invoice.Items) == 0 {
			return nil
		}

		for i := range invoice.Items {
			invoice.Items[i].InvoiceID = invoice.ID
		}
		return tx.Create(&invoice.Items).Error
	})
}

func (r *invoiceRepository) GetByInvoiceNo(ctx context.Context, invoiceNo string) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&invoice, "invoice_no = ?", invoiceNo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) UpdateTotals(ctx context.Context, invoice *entity.Invoice, audit *entity.DiscountAudit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Invoice{}).
			Where("id = ? AND discount = ? AND grand_total = ?", invoice.ID, audit.OldDiscount, audit.OldGrandTotal).
			Updates(map[string]interface{}{
				"sub_total":       invoice.SubTotal,
				"tax_total":       invoice.TaxTotal,
				"discount":        invoice.Discount,
				"delivery_charge": invoice.DeliveryCharge,
				"grand_total":     invoice.GrandTotal,
				"updated_at":      time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&entity.Invoice{}).Where("id = ?", invoice.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return gorm.ErrRecordNotFound
			}
			return domainRepo.ErrInvoiceChanged
		}

		audit.InvoiceID = invoice.ID
		return tx.Create(audit).Error
	})
}

func (r *invoiceRepository) ListDiscountAudits(ctx context.Context, invoiceNo string) ([]entity.DiscountAudit, error) {
	var audits []entity.DiscountAudit
	err := r.db.WithContext(ctx).
		Where("invoice_id = (SELECT id FROM invoices WHERE invoice_no = ?)", invoiceNo).
		Order("created_at ASC").
		Find(&audits).Error
	return audits, err
}
