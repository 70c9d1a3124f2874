package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer is the optional customer block printed on an invoice.
type Customer struct {
	Name    string `gorm:"size:255" json:"name,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
}

// Invoice is issued once per finalized order. Its number, items and customer
// never change; totals change only through an audited discount edit.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNo      string          `gorm:"size:12;uniqueIndex;not null" json:"invoice_no"`
	IssuedAt       time.Time       `gorm:"not null" json:"issued_at"`
	TaxRegime      enum.TaxRegime  `gorm:"default:0" json:"tax_regime"`
	Customer       Customer        `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	PaymentMethod  string          `gorm:"size:50" json:"payment_method"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sub_total"`
	TaxTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_total"`
	Discount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	DeliveryCharge decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"delivery_charge"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"grand_total"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Relationships
	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// Totals returns the stored totals.
func (i *Invoice) Totals() OrderTotals {
	return OrderTotals{
		SubTotal:       i.SubTotal,
		TaxTotal:       i.TaxTotal,
		Discount:       i.Discount,
		DeliveryCharge: i.DeliveryCharge,
		GrandTotal:     i.GrandTotal,
	}
}

// SetTotals replaces every total at once.
func (i *Invoice) SetTotals(t OrderTotals) {
	i.SubTotal = t.SubTotal
	i.TaxTotal = t.TaxTotal
	i.Discount = t.Discount
	i.DeliveryCharge = t.DeliveryCharge
	i.GrandTotal = t.GrandTotal
}

// LineItems rebuilds the line items from the stored snapshot, in print order.
func (i *Invoice) LineItems() []LineItem {
	items := make([]LineItem, len(i.Items))
	for idx, it := range i.Items {
		items[idx] = it.LineItem()
	}
	return items
}

// InvoiceItem is the persisted snapshot of a line item.
type InvoiceItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position       int             `gorm:"not null" json:"position"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRatePercent decimal.Decimal `gorm:"type:decimal(6,3);not null" json:"tax_rate"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	LineTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
}

// BeforeCreate generates a UUID before creating a new invoice item
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// LineItem converts the stored row back into a LineItem.
func (it InvoiceItem) LineItem() LineItem {
	return LineItem{
		Item: MenuItemRef{
			Name:           it.Name,
			UnitPrice:      it.UnitPrice,
			TaxRatePercent: it.TaxRatePercent,
		},
		Quantity: it.Quantity,
	}
}

// NewInvoiceItems snapshots line items for storage.
func NewInvoiceItems(items []LineItem) []InvoiceItem {
	rows := make([]InvoiceItem, len(items))
	for i, li := range items {
		rows[i] = InvoiceItem{
			Position:       i + 1,
			Name:           li.Item.Name,
			UnitPrice:      li.Item.UnitPrice,
			TaxRatePercent: li.Item.TaxRatePercent,
			Quantity:       li.Quantity,
			LineTotal:      li.LineTotal().Round(2),
		}
	}
	return rows
}

// DiscountAudit records one discount edit on an invoice.
type DiscountAudit struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	OldDiscount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"old_discount"`
	NewDiscount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"new_discount"`
	OldGrandTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"old_grand_total"`
	NewGrandTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"new_grand_total"`
	EditedBy      string          `gorm:"size:255" json:"edited_by"`
	Reason        string          `gorm:"size:500" json:"reason"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new audit row
func (a *DiscountAudit) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the DiscountAudit model
func (DiscountAudit) TableName() string {
	return "invoice_discount_audits"
}
