package request

// PrintReceiptRequest is the request body for printing a receipt.
type PrintReceiptRequest struct {
	InvoiceNo string `json:"invoice_no" binding:"required,len=12"`
	// Dialect is 58mm, 80mm or a4; empty uses the configured paper width.
	Dialect *string `json:"dialect"`
}
