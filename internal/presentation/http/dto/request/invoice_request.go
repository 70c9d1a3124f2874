package request

import (
	"github.com/shopspring/decimal"
)

// InvoiceItemRequest is one cart row. Prices are decimal strings or numbers;
// a zero price or rate must be sent explicitly.
type InvoiceItemRequest struct {
	Name      string           `json:"name" binding:"required,max=255"`
	UnitPrice *decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate   *decimal.Decimal `json:"tax_rate" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
}

// QuoteRequest prices a cart without issuing an invoice.
type QuoteRequest struct {
	Items          []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount       decimal.Decimal      `json:"discount"`
	DeliveryCharge decimal.Decimal      `json:"delivery_charge"`
}

// CustomerRequest is the optional customer block.
type CustomerRequest struct {
	Name    string `json:"name" binding:"max=255"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
}

// FinalizeInvoiceRequest is the request body for issuing an invoice.
type FinalizeInvoiceRequest struct {
	Items          []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount       decimal.Decimal      `json:"discount"`
	DeliveryCharge decimal.Decimal      `json:"delivery_charge"`
	Customer       CustomerRequest      `json:"customer"`
	PaymentMethod  string               `json:"payment_method" binding:"max=50"`
	// Print sends the receipt to the printer right after the invoice is stored.
	Print   bool    `json:"print"`
	Dialect *string `json:"dialect"`
}

// EditDiscountRequest replaces the discount of an issued invoice.
type EditDiscountRequest struct {
	Discount decimal.Decimal `json:"discount"`
	Reason   string          `json:"reason" binding:"required,max=500"`
}
