package entity

import "github.com/shopspring/decimal"

// MenuItemRef is a snapshot of a menu item taken when the order is placed.
// Later catalog price changes never reach an existing snapshot.
type MenuItemRef struct {
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate"`
}

// LineItem is one cart row.
type LineItem struct {
	Item     MenuItemRef `json:"item"`
	Quantity int         `json:"quantity"`
}

// LineTotal returns unit price times quantity, unrounded.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Item.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderTotals are the rounded monetary results of a bill.
type OrderTotals struct {
	SubTotal       decimal.Decimal `json:"sub_total"`
	TaxTotal       decimal.Decimal `json:"tax_total"`
	Discount       decimal.Decimal `json:"discount"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	GrandTotal     decimal.Decimal `json:"grand_total"`

	// DiscountClamped is set when the discount exceeded everything else and
	// GrandTotal was floored at zero.
	DiscountClamped bool `json:"discount_clamped,omitempty"`
}

// IsZero reports whether no totals have been computed yet.
func (t OrderTotals) IsZero() bool {
	return t.SubTotal.IsZero() && t.TaxTotal.IsZero() && t.Discount.IsZero() &&
		t.DeliveryCharge.IsZero() && t.GrandTotal.IsZero()
}

// PreDiscount is the amount the discount is taken from.
func (t OrderTotals) PreDiscount() decimal.Decimal {
	return t.SubTotal.Add(t.TaxTotal).Add(t.DeliveryCharge)
}
