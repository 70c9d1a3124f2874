package entity

// ReceiptHeader holds the restaurant header printed at the top of a receipt.
type ReceiptHeader struct {
	Title     string `json:"title"`
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxID     string `json:"tax_id,omitempty"`
}

// ReceiptCustomer is the customer block; every field is optional.
type ReceiptCustomer struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Empty reports whether there is nothing to print for the customer.
func (c ReceiptCustomer) Empty() bool {
	return c.Name == "" && c.Phone == "" && c.Address == ""
}

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

// ReceiptTotal is one labelled amount of the totals block, e.g. "Subtotal:".
type ReceiptTotal struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// Receipt is a value object representing a printable receipt.
// It is NOT a database entity. It is composed from invoice data at print
// time and feeds both the thermal and the on-screen output, so every amount
// is already formatted.
type Receipt struct {
	Header      ReceiptHeader   `json:"header"`
	InvoiceNo   string          `json:"invoice_no"`
	Date        string          `json:"date"`
	Cashier     string          `json:"cashier,omitempty"`
	Customer    ReceiptCustomer `json:"customer"`
	PaymentType string          `json:"payment_type,omitempty"`
	Items       []ReceiptItem   `json:"items"`
	Totals      []ReceiptTotal  `json:"totals"`
	GrandTotal  string          `json:"grand_total"`
	Notice      string          `json:"notice,omitempty"`
	Footer      string          `json:"footer,omitempty"`
}
