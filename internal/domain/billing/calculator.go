// Package billing turns a cart into monetary totals. All arithmetic is exact
// decimal; values are rounded to two places only once, when they become
// displayed totals.
package billing

import (
	"fmt"

	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/sangkips/restaurant-pos-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of fractional digits on every displayed amount.
const DisplayPlaces = 2

// Limits of a stored tax rate, matching the decimal(6,3) item column.
const (
	TaxRatePlaces = 3
	MaxTaxRate    = 100
)

// ComputeTotals computes subtotal, tax and grand total for a cart.
//
// Tax is summed per line at full precision and forced to zero when the
// regime does not collect tax. The grand total is built from the rounded
// subtotal and tax so that the printed figures add up, and is floored at
// zero. An empty cart yields zero totals.
func ComputeTotals(items []entity.LineItem, regime enum.TaxRegime, discount, deliveryCharge decimal.Decimal) (entity.OrderTotals, error) {
	if errs := validate(items, regime, discount, deliveryCharge); len(errs) > 0 {
		return entity.OrderTotals{}, apperror.NewValidationError(errs)
	}

	subTotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, item := range items {
		line := item.LineTotal()
		subTotal = subTotal.Add(line)
		taxTotal = taxTotal.Add(line.Mul(item.Item.TaxRatePercent).Shift(-2))
	}
	if !regime.CollectsTax() {
		taxTotal = decimal.Zero
	}

	totals := entity.OrderTotals{
		SubTotal:       round(subTotal),
		TaxTotal:       round(taxTotal),
		Discount:       round(discount),
		DeliveryCharge: round(deliveryCharge),
	}

	grand := totals.PreDiscount().Sub(totals.Discount)
	if grand.IsNegative() {
		grand = decimal.Zero
		totals.DiscountClamped = true
	}
	totals.GrandTotal = round(grand)

	return totals, nil
}

// ValidateDiscount rejects a discount larger than the amount it is taken
// from. ComputeTotals clamps such a discount; callers that persist totals
// must refuse it instead.
func ValidateDiscount(totals entity.OrderTotals) error {
	if totals.Discount.GreaterThan(totals.PreDiscount()) {
		return apperror.NewValidationError([]apperror.FieldError{{
			Field: "discount",
			Message: fmt.Sprintf("discount %s exceeds bill amount %s",
				Format(totals.Discount), Format(totals.PreDiscount())),
		}})
	}
	return nil
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(DisplayPlaces)
}

// round is half-up for the non-negative values used here.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayPlaces)
}

func validate(items []entity.LineItem, regime enum.TaxRegime, discount, deliveryCharge decimal.Decimal) []apperror.FieldError {
	var errs []apperror.FieldError

	if !regime.Valid() {
		errs = append(errs, apperror.FieldError{Field: "tax_regime", Message: fmt.Sprintf("unknown regime %d", int(regime))})
	}

	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if item.Item.Name == "" {
			errs = append(errs, apperror.FieldError{Field: field + ".name", Message: "name is required"})
		}
		if item.Quantity <= 0 {
			errs = append(errs, apperror.FieldError{Field: field + ".quantity", Message: "quantity must be at least 1"})
		}
		if item.Item.UnitPrice.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: field + ".unit_price", Message: "unit price cannot be negative"})
		}
		if item.Item.TaxRatePercent.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: field + ".tax_rate", Message: "tax rate cannot be negative"})
		}
	}

	errs = append(errs, checkAmount("discount", discount)...)
	errs = append(errs, checkAmount("delivery_charge", deliveryCharge)...)
	return errs
}

func checkAmount(field string, d decimal.Decimal) []apperror.FieldError {
	if d.IsNegative() {
		return []apperror.FieldError{{Field: field, Message: "cannot be negative"}}
	}
	if !d.Equal(d.Truncate(DisplayPlaces)) {
		return []apperror.FieldError{{Field: field, Message: "at most two decimal places"}}
	}
	return nil
}
